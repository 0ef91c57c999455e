package audit

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/syndtr/goleveldb/leveldb"

	"github.com/xd-sarthak/medical-doc-verification-using-blockchain/internal/platform/kv"
)

// Entries live under audit:<seq>. The actor and subject indexes map
// audit-actor:<actor>\x00<seq> and audit-subject:<subject>\x00<seq> to the
// primary key, with actor and subject escaped by kv.Segment.
const (
	keyAudit        = "audit:"
	keyAuditActor   = "audit-actor:"
	keyAuditSubject = "audit-subject:"
	keyAuditCnt     = "meta:audit-seq"
)

type RepoLevelDB struct {
	store *kv.Store
}

func NewRepoLevelDB(store *kv.Store) *RepoLevelDB {
	return &RepoLevelDB{store: store}
}

func (r *RepoLevelDB) Append(_ context.Context, e *Entry) error {
	seq, err := r.store.Counter(keyAuditCnt)
	if err != nil {
		return err
	}
	seq++
	e.Seq = seq

	primary := kv.SeqKey(keyAudit, seq)
	b := new(leveldb.Batch)
	if err := kv.PutJSON(b, primary, e); err != nil {
		return err
	}
	b.Put([]byte(kv.SeqKey(keyAuditActor+kv.Segment(e.Actor), seq)), []byte(primary))
	b.Put([]byte(kv.SeqKey(keyAuditSubject+kv.Segment(e.Subject), seq)), []byte(primary))
	kv.PutCounter(b, keyAuditCnt, seq)
	return r.store.Write(b)
}

func (r *RepoLevelDB) All(_ context.Context) ([]*Entry, error) {
	out := []*Entry{}
	err := r.store.Scan(keyAudit, func(key, value []byte) error {
		var e Entry
		if err := json.Unmarshal(value, &e); err != nil {
			return fmt.Errorf("decode %s: %w", key, err)
		}
		out = append(out, &e)
		return nil
	})
	return out, err
}

func (r *RepoLevelDB) ByActor(_ context.Context, actor string) ([]*Entry, error) {
	return r.index(keyAuditActor + kv.Segment(actor))
}

func (r *RepoLevelDB) BySubject(_ context.Context, subject string) ([]*Entry, error) {
	return r.index(keyAuditSubject + kv.Segment(subject))
}

func (r *RepoLevelDB) Count(_ context.Context) (int, error) {
	n, err := r.store.Counter(keyAuditCnt)
	return int(n), err
}

func (r *RepoLevelDB) index(prefix string) ([]*Entry, error) {
	var keys []string
	if err := r.store.Scan(prefix, func(_, value []byte) error {
		keys = append(keys, string(value))
		return nil
	}); err != nil {
		return nil, err
	}

	out := make([]*Entry, 0, len(keys))
	for _, k := range keys {
		var e Entry
		if err := r.store.GetJSON(k, &e); err != nil {
			return nil, err
		}
		out = append(out, &e)
	}
	return out, nil
}
