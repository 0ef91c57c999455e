package identity

import (
	"context"
	"fmt"

	"github.com/syndtr/goleveldb/leveldb"

	"github.com/xd-sarthak/medical-doc-verification-using-blockchain/internal/platform/apperr"
	"github.com/xd-sarthak/medical-doc-verification-using-blockchain/internal/platform/kv"
)

const (
	keyIdentity    = "identity:"
	keyIdentitySeq = "identity-seq:"
	keyIdentityCnt = "meta:identity-seq"
)

// RepoLevelDB stores each identity as JSON under identity:<id> and keeps
// registration order in an identity-seq:<n> index.
type RepoLevelDB struct {
	store *kv.Store
}

func NewRepoLevelDB(store *kv.Store) *RepoLevelDB {
	return &RepoLevelDB{store: store}
}

func (r *RepoLevelDB) Create(_ context.Context, i *Identity) error {
	exists, err := r.store.Has(keyIdentity + i.ID)
	if err != nil {
		return err
	}
	if exists {
		return fmt.Errorf("identity %s: %w", i.ID, apperr.ErrAlreadyRegistered)
	}
	seq, err := r.store.Counter(keyIdentityCnt)
	if err != nil {
		return err
	}
	seq++

	b := new(leveldb.Batch)
	if err := kv.PutJSON(b, keyIdentity+i.ID, i); err != nil {
		return err
	}
	b.Put([]byte(kv.SeqKey(keyIdentitySeq, seq)), []byte(i.ID))
	kv.PutCounter(b, keyIdentityCnt, seq)
	return r.store.Write(b)
}

func (r *RepoLevelDB) Get(_ context.Context, id string) (*Identity, error) {
	var i Identity
	if err := r.store.GetJSON(keyIdentity+id, &i); err != nil {
		return nil, err
	}
	return &i, nil
}

func (r *RepoLevelDB) List(ctx context.Context) ([]*Identity, error) {
	var ids []string
	err := r.store.Scan(keyIdentitySeq, func(_, value []byte) error {
		ids = append(ids, string(value))
		return nil
	})
	if err != nil {
		return nil, err
	}
	out := make([]*Identity, 0, len(ids))
	for _, id := range ids {
		i, err := r.Get(ctx, id)
		if err != nil {
			return nil, err
		}
		out = append(out, i)
	}
	return out, nil
}
