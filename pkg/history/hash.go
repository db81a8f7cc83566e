package history

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"time"
)

// ChainHash computes a record's hash from its content and the previous
// record's hash. The serialization is fixed: changing it invalidates
// every existing store, so fields are concatenated explicitly rather
// than via JSON, whose field order is not part of any contract.
func ChainHash(record *Record, prevHash string) string {
	h := sha256.New()
	fmt.Fprintf(h, "%s|%s|%s|%d|%d|%d|%d|%d|%d|%t|",
		record.ID,
		record.StartedAt.UTC().Format(time.RFC3339Nano),
		record.FinishedAt.UTC().Format(time.RFC3339Nano),
		record.Summary.TotalRules,
		record.Summary.PassedRules,
		record.Summary.FailedRules,
		record.Summary.ErroredRules,
		record.Summary.SkippedRules,
		record.Summary.Violations,
		record.Cancelled,
	)
	h.Write(record.Results)
	h.Write([]byte("|"))
	h.Write([]byte(prevHash))
	return hex.EncodeToString(h.Sum(nil))
}

// VerifyRecords checks a slice of records in store order: every record's
// hash must match its content, and every link must point at its
// predecessor. The first record's PrevHash is accepted as given, since
// pruning may have removed its predecessor.
func VerifyRecords(records []*Record) error {
	for i, rec := range records {
		if got := ChainHash(rec, rec.PrevHash); got != rec.Hash {
			return &ChainError{RecordID: rec.ID, Reason: "content hash mismatch"}
		}
		if i > 0 && rec.PrevHash != records[i-1].Hash {
			return &ChainError{RecordID: rec.ID, Reason: fmt.Sprintf("link does not match predecessor %s", records[i-1].ID)}
		}
	}
	return nil
}
