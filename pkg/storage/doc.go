// Package storage archives rendered documents in S3-compatible object storage.
//
// Archiving is optional. When STORAGE_BUCKET is empty the archive is not
// constructed and documents are only delivered as mail attachments.
//
//	archive, err := storage.New(cfg.Storage)
//	if err != nil {
//		return err
//	}
//	key := archive.Key(time.Now(), "KONFIG-01J9Z7", "Badkonfiguration_Anna_Schmidt_20240315_143000.pdf")
//	_, err = archive.Put(ctx, key, pdf, "application/pdf")
//
// Keys follow {prefix}/{yyyy}/{mm}/{correlation}/{filename}; every segment is
// sanitized against path traversal. Objects are uploaded with a private ACL.
package storage
