// Package sqlite provides a file-based checkpoint store on SQLite.
//
// Good for single-process deployments and local development: no server, no
// configuration, one file on disk. Use Path ":memory:" for throwaway
// databases in tests.
//
//	cps, err := sqlite.NewCheckpointStore(sqlite.Options{
//		Path: "./checkpoints.db",
//	})
//	if err != nil {
//		return err
//	}
//	defer cps.Close()
package sqlite
