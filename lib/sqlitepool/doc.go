// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package sqlitepool opens SQLite databases with the pragmas every
// godfather database uses.
//
// It wraps zombiezen.com/go/sqlite's sqlitex.Pool. Callers [Pool.Take]
// a connection, do their work, and [Pool.Put] it back. A connection
// must not be shared between goroutines.
//
// # Pragmas
//
// Every connection is initialized with:
//
//   - journal_mode=WAL: the moderator reads while "godfather mail"
//     writes from another process.
//   - synchronous=FULL: an injected message that was acknowledged is
//     on disk. The mailbox stands in for a mail provider and must not
//     lose mail across a power failure.
//   - busy_timeout=5000: wait up to 5 seconds for the write lock.
//   - foreign_keys=ON.
//   - temp_store=MEMORY.
//
// # Usage
//
//	pool, err := sqlitepool.Open(sqlitepool.Config{
//	    Path:   filepath.Join(gameDirectory, "mailbox.db"),
//	    Logger: logger,
//	    OnConnect: func(conn *sqlite.Conn) error {
//	        return sqlitex.ExecuteScript(conn, schema, nil)
//	    },
//	})
//	if err != nil {
//	    return err
//	}
//	defer pool.Close()
//
//	conn, err := pool.Take(ctx)
//	if err != nil {
//	    return err
//	}
//	defer pool.Put(conn)
//
// SQL is written by hand and executed with sqlitex.Execute; there is
// no query builder.
package sqlitepool
