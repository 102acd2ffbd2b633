// Package attachments provides the persistence layer for attachment metadata.
//
// # Overview
//
// Repository covers creating attachment rows, looking them up, and recording
// the thumbnail blob once one has been generated. Two implementations exist:
//
//   - SQLiteRepository: local store over dbx.DBTX (modernc.org/sqlite)
//   - PostgresRepository: shared store over dbx.DBTX (pgx stdlib driver)
//
// Both return common.ErrorNotFound for unknown ids.
//
// Typical Usage
//
//	repo := attachments.NewSQLiteRepository(db)
//	id, _ := repo.Create(ctx, a)
//	a, _ = repo.GetByID(ctx, id)
//	_ = repo.SetThumbnail(ctx, id, "thumbs/...", 1.5)
package attachments
