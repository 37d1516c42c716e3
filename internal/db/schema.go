package db

const schema = `
	CREATE TABLE IF NOT EXISTS settings (
		id INTEGER PRIMARY KEY CHECK (id = 1),
		wpm INTEGER NOT NULL,
		fontSize INTEGER NOT NULL,
		punctuationSensitive INTEGER NOT NULL,
		showORP INTEGER NOT NULL,
		useAnimation INTEGER NOT NULL,
		showProgress INTEGER NOT NULL,
		updatedAt REAL NOT NULL
	);

	CREATE TABLE IF NOT EXISTS reading_state (
		id INTEGER PRIMARY KEY CHECK (id = 1),
		content TEXT NOT NULL,
		progress REAL NOT NULL,
		createdAt REAL NOT NULL,
		lastReadAt REAL NOT NULL
	);

	CREATE TABLE IF NOT EXISTS readings (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		preview TEXT NOT NULL,
		wordCount INTEGER NOT NULL,
		progress REAL NOT NULL,
		createdAt REAL NOT NULL UNIQUE,
		lastReadAt REAL NOT NULL
	);
`
