package sqlite

const schema = `
PRAGMA journal_mode = WAL;
PRAGMA busy_timeout = 5000;

CREATE TABLE IF NOT EXISTS articles (
    id INTEGER PRIMARY KEY AUTOINCREMENT,
    url TEXT NOT NULL UNIQUE,
    heading TEXT NOT NULL UNIQUE,
    category TEXT NOT NULL,
    body_text TEXT NOT NULL,
    image_reference TEXT NOT NULL,
    created_at TEXT NOT NULL DEFAULT (strftime('%Y-%m-%d %H:%M:%f', 'now'))
);

CREATE INDEX IF NOT EXISTS idx_articles_created_at ON articles(created_at);
`

// createdAtLayout matches the created_at default; fractional seconds are
// accepted by time.Parse even though the layout omits them.
const createdAtLayout = "2006-01-02 15:04:05"
