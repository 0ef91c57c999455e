package access

import (
	"context"
	"fmt"
	"strings"

	"github.com/syndtr/goleveldb/leveldb"

	"github.com/xd-sarthak/medical-doc-verification-using-blockchain/internal/platform/apperr"
	"github.com/xd-sarthak/medical-doc-verification-using-blockchain/internal/platform/kv"
)

// Key layout; ids are escaped with kv.Segment and end in \x00:
//
//	grant:<doctor>\x00<patient>      JSON Grant
//	grantlist:<doctor>\x00<pos>      patient id at list position pos
//	grantrev:<patient>\x00<doctor>   reverse index
//	meta:grantcount:<doctor>         list length
const (
	keyGrant     = "grant:"
	keyGrantList = "grantlist:"
	keyGrantRev  = "grantrev:"
	keyGrantCnt  = "meta:grantcount:"
)

func grantKey(d, p string) string { return keyGrant + kv.Segment(d) + kv.Escape(p) }
func listPrefix(d string) string  { return keyGrantList + kv.Segment(d) }
func listKey(d string, pos int) string {
	return kv.SeqKey(listPrefix(d), uint64(pos))
}
func revPrefix(p string) string  { return keyGrantRev + kv.Segment(p) }
func revKey(p, d string) string { return revPrefix(p) + kv.Escape(d) }

type RepoLevelDB struct {
	store *kv.Store
}

func NewRepoLevelDB(store *kv.Store) *RepoLevelDB {
	return &RepoLevelDB{store: store}
}

func (r *RepoLevelDB) Exists(_ context.Context, doctorID, patientID string) (bool, error) {
	return r.store.Has(grantKey(doctorID, patientID))
}

func (r *RepoLevelDB) Insert(_ context.Context, g *Grant) error {
	exists, err := r.store.Has(grantKey(g.DoctorID, g.PatientID))
	if err != nil {
		return err
	}
	if exists {
		return fmt.Errorf("grant %s/%s: %w", g.DoctorID, g.PatientID, apperr.ErrAlreadyGranted)
	}
	n, err := r.store.Counter(keyGrantCnt + kv.Escape(g.DoctorID))
	if err != nil {
		return err
	}

	g.Position = int(n)
	b := new(leveldb.Batch)
	if err := kv.PutJSON(b, grantKey(g.DoctorID, g.PatientID), g); err != nil {
		return err
	}
	b.Put([]byte(listKey(g.DoctorID, g.Position)), []byte(g.PatientID))
	b.Put([]byte(revKey(g.PatientID, g.DoctorID)), nil)
	kv.PutCounter(b, keyGrantCnt+kv.Escape(g.DoctorID), n+1)
	return r.store.Write(b)
}

func (r *RepoLevelDB) Delete(_ context.Context, doctorID, patientID string) error {
	var g Grant
	if err := r.store.GetJSON(grantKey(doctorID, patientID), &g); err != nil {
		return err
	}
	n, err := r.store.Counter(keyGrantCnt + kv.Escape(doctorID))
	if err != nil {
		return err
	}
	if n == 0 {
		return fmt.Errorf("grant list for %s is empty: %w", doctorID, apperr.ErrNotFound)
	}
	last := int(n) - 1

	b := new(leveldb.Batch)
	if g.Position != last {
		raw, err := r.store.Get(listKey(doctorID, last))
		if err != nil {
			return err
		}
		moved := string(raw)
		var mg Grant
		if err := r.store.GetJSON(grantKey(doctorID, moved), &mg); err != nil {
			return err
		}
		mg.Position = g.Position
		if err := kv.PutJSON(b, grantKey(doctorID, moved), &mg); err != nil {
			return err
		}
		b.Put([]byte(listKey(doctorID, g.Position)), []byte(moved))
	}
	b.Delete([]byte(listKey(doctorID, last)))
	b.Delete([]byte(grantKey(doctorID, patientID)))
	b.Delete([]byte(revKey(patientID, doctorID)))
	kv.PutCounter(b, keyGrantCnt+kv.Escape(doctorID), uint64(last))
	return r.store.Write(b)
}

func (r *RepoLevelDB) Patients(_ context.Context, doctorID string) ([]string, error) {
	out := []string{}
	err := r.store.Scan(listPrefix(doctorID), func(_, value []byte) error {
		out = append(out, string(value))
		return nil
	})
	return out, err
}

func (r *RepoLevelDB) Doctors(_ context.Context, patientID string) ([]string, error) {
	prefix := revPrefix(patientID)
	out := []string{}
	err := r.store.Scan(prefix, func(key, _ []byte) error {
		out = append(out, kv.Unescape(strings.TrimPrefix(string(key), prefix)))
		return nil
	})
	return out, err
}
