// Package database provides the durable storage areas of the library.
//
// # Architecture
//
// All areas live in one SQLite file but are independent of each other;
// nothing links them transactionally:
//
//	database/
//	├── database.go      # Connection setup and migrations
//	├── blobs/           # Raw book bytes keyed by book key
//	├── locations/       # Last position token per book key
//	├── documents/       # Named JSON documents (library index, reading stats)
//	├── settings/        # Key/value settings
//	└── jobs/            # Progress of bulk operations (backup, batch ingest)
//
// # Using Sub-packages
//
//	db, err := database.NewDatabase("./bookshelf.db")
//
//	blobRepo := blobs.NewRepository(db.DB)
//	locRepo := locations.NewRepository(db.DB)
//
//	data, err := blobRepo.Get(ctx, "Alice.epub-120000")
//	if apperr.IsNotFound(err) {
//		// no bytes stored under that key
//	}
//
// Missing keys are reported with apperr.ErrNotFound, storage failures with
// apperr.ErrIO.
package database
