package records

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/syndtr/goleveldb/leveldb"

	"github.com/xd-sarthak/medical-doc-verification-using-blockchain/internal/platform/apperr"
	"github.com/xd-sarthak/medical-doc-verification-using-blockchain/internal/platform/kv"
)

// Records live under record:<patient>\x00<seq>, with the patient id escaped by
// kv.Segment, so a prefix scan yields one patient's list in insertion order.
const (
	keyRecord    = "record:"
	keyRecordCnt = "meta:record-seq"
)

func patientPrefix(patientID string) string { return keyRecord + kv.Segment(patientID) }

func recordKey(patientID string, seq uint64) string {
	return kv.SeqKey(patientPrefix(patientID), seq)
}

type RepoLevelDB struct {
	store *kv.Store
}

func NewRepoLevelDB(store *kv.Store) *RepoLevelDB {
	return &RepoLevelDB{store: store}
}

func (r *RepoLevelDB) Insert(_ context.Context, rec *MedicalRecord, prev *MedicalRecord) error {
	b := new(leveldb.Batch)
	if prev != nil {
		var stored MedicalRecord
		if err := r.store.GetJSON(recordKey(rec.PatientID, prev.Seq), &stored); err != nil {
			return err
		}
		if stored.ID != prev.ID {
			return fmt.Errorf("record %s: %w", prev.ID, apperr.ErrNotFound)
		}
		stored.Active = false
		if err := kv.PutJSON(b, recordKey(rec.PatientID, prev.Seq), &stored); err != nil {
			return err
		}
	}

	seq, err := r.store.Counter(keyRecordCnt)
	if err != nil {
		return err
	}
	seq++
	rec.Seq = seq
	if err := kv.PutJSON(b, recordKey(rec.PatientID, seq), rec); err != nil {
		return err
	}
	kv.PutCounter(b, keyRecordCnt, seq)
	return r.store.Write(b)
}

func (r *RepoLevelDB) List(_ context.Context, patientID string) ([]*MedicalRecord, error) {
	out := []*MedicalRecord{}
	err := r.store.Scan(patientPrefix(patientID), func(key, value []byte) error {
		var rec MedicalRecord
		if err := json.Unmarshal(value, &rec); err != nil {
			return fmt.Errorf("decode %s: %w", key, err)
		}
		out = append(out, &rec)
		return nil
	})
	return out, err
}
