package store

type migration struct {
	Version int
	Name    string
	SQL     string
}

// migrations is applied in order; never edit a released entry.
var migrations = []migration{
	{
		Version: 1,
		Name:    "create conversations and lines",
		SQL: `
			CREATE TABLE conversations (
				id          TEXT PRIMARY KEY,
				host        TEXT NOT NULL,
				label       TEXT NOT NULL,
				created_at  TEXT NOT NULL DEFAULT (datetime('now')),
				updated_at  TEXT NOT NULL DEFAULT (datetime('now'))
			);

			CREATE UNIQUE INDEX idx_conversations_key ON conversations (host, label);

			CREATE TABLE lines (
				id               INTEGER PRIMARY KEY AUTOINCREMENT,
				conversation_id  TEXT NOT NULL,
				kind             TEXT NOT NULL,
				level            INTEGER NOT NULL DEFAULT 0,
				text             TEXT NOT NULL,
				timestamp        TEXT NOT NULL,
				FOREIGN KEY (conversation_id) REFERENCES conversations(id) ON DELETE CASCADE
			);

			CREATE INDEX idx_lines_conversation ON lines (conversation_id, id);
		`,
	},
	{
		Version: 2,
		Name:    "index line text with FTS5",
		SQL: `
			CREATE VIRTUAL TABLE lines_fts USING fts5(
				text,
				content='lines',
				content_rowid='id'
			);

			CREATE TRIGGER lines_ai AFTER INSERT ON lines BEGIN
				INSERT INTO lines_fts(rowid, text) VALUES (new.id, new.text);
			END;

			CREATE TRIGGER lines_ad AFTER DELETE ON lines BEGIN
				INSERT INTO lines_fts(lines_fts, rowid, text) VALUES ('delete', old.id, old.text);
			END;
		`,
	},
}
