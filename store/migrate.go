package store

import (
	"context"
	"fmt"
	"log"

	"messenger/registry"
)

// Migrate creates the messenger tables if they do not exist, honoring the
// registry's table-name overrides. Hosts that manage their own schema can
// skip it; the tests rely on it.
func Migrate(ctx context.Context, s *Store, reg *registry.Registry) error {
	users := reg.Table(registry.TableUsers)
	conversations := reg.Table(registry.TableConversations)
	messages := reg.Table(registry.TableMessages)
	participants := reg.Table(registry.TableParticipants)

	var migrations []string
	switch s.Dialect().Name() {
	case "postgres":
		migrations = []string{
			fmt.Sprintf(`CREATE TABLE IF NOT EXISTS %s (
                id SERIAL PRIMARY KEY,
                name TEXT NOT NULL DEFAULT '',
                email TEXT NOT NULL DEFAULT '',
                created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
                updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
                deleted_at TIMESTAMPTZ
            );`, users),
			fmt.Sprintf(`CREATE TABLE IF NOT EXISTS %s (
                id SERIAL PRIMARY KEY,
                subject TEXT NOT NULL,
                created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
                updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
                deleted_at TIMESTAMPTZ
            );`, conversations),
			fmt.Sprintf(`CREATE TABLE IF NOT EXISTS %s (
                id SERIAL PRIMARY KEY,
                conversation_id INT NOT NULL REFERENCES %s(id) ON DELETE CASCADE,
                user_id INT NOT NULL,
                body TEXT NOT NULL,
                created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
                updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
                deleted_at TIMESTAMPTZ
            );`, messages, conversations),
			fmt.Sprintf(`CREATE TABLE IF NOT EXISTS %s (
                id SERIAL PRIMARY KEY,
                conversation_id INT NOT NULL REFERENCES %s(id) ON DELETE CASCADE,
                user_id INT NOT NULL,
                last_read TIMESTAMPTZ,
                created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
                updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
                deleted_at TIMESTAMPTZ
            );`, participants, conversations),
			fmt.Sprintf(`CREATE INDEX IF NOT EXISTS idx_%s_conversation_user ON %s (conversation_id, user_id);`, participants, participants),
			fmt.Sprintf(`CREATE INDEX IF NOT EXISTS idx_%s_conversation ON %s (conversation_id);`, messages, messages),
		}
	case "sqlite":
		migrations = []string{
			fmt.Sprintf(`CREATE TABLE IF NOT EXISTS %s (
                id INTEGER PRIMARY KEY AUTOINCREMENT,
                name TEXT NOT NULL DEFAULT '',
                email TEXT NOT NULL DEFAULT '',
                created_at TIMESTAMP NOT NULL,
                updated_at TIMESTAMP NOT NULL,
                deleted_at TIMESTAMP
            );`, users),
			fmt.Sprintf(`CREATE TABLE IF NOT EXISTS %s (
                id INTEGER PRIMARY KEY AUTOINCREMENT,
                subject TEXT NOT NULL,
                created_at TIMESTAMP NOT NULL,
                updated_at TIMESTAMP NOT NULL,
                deleted_at TIMESTAMP
            );`, conversations),
			fmt.Sprintf(`CREATE TABLE IF NOT EXISTS %s (
                id INTEGER PRIMARY KEY AUTOINCREMENT,
                conversation_id INTEGER NOT NULL REFERENCES %s(id) ON DELETE CASCADE,
                user_id INTEGER NOT NULL,
                body TEXT NOT NULL,
                created_at TIMESTAMP NOT NULL,
                updated_at TIMESTAMP NOT NULL,
                deleted_at TIMESTAMP
            );`, messages, conversations),
			fmt.Sprintf(`CREATE TABLE IF NOT EXISTS %s (
                id INTEGER PRIMARY KEY AUTOINCREMENT,
                conversation_id INTEGER NOT NULL REFERENCES %s(id) ON DELETE CASCADE,
                user_id INTEGER NOT NULL,
                last_read TIMESTAMP,
                created_at TIMESTAMP NOT NULL,
                updated_at TIMESTAMP NOT NULL,
                deleted_at TIMESTAMP
            );`, participants, conversations),
			fmt.Sprintf(`CREATE INDEX IF NOT EXISTS idx_%s_conversation_user ON %s (conversation_id, user_id);`, participants, participants),
			fmt.Sprintf(`CREATE INDEX IF NOT EXISTS idx_%s_conversation ON %s (conversation_id);`, messages, messages),
		}
	default:
		return fmt.Errorf("no migrations for dialect %q", s.Dialect().Name())
	}

	for _, m := range migrations {
		if _, err := s.db.ExecContext(ctx, m); err != nil {
			return fmt.Errorf("run migrations: %w", err)
		}
	}
	log.Println("messenger migrations applied")
	return nil
}
