package bolt

import (
	"encoding/binary"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	bbolt "go.etcd.io/bbolt"

	"github.com/haukened/sitepulse/internal/pulse/domain"
	"github.com/haukened/sitepulse/internal/pulse/repos/messages"
)

var bucketMessages = []byte("messages")

// ErrArchiveClosed is returned by operations on a closed archive.
var ErrArchiveClosed = errors.New("archive closed")

// Archive stores evicted messages in a bbolt file. Keys are big-endian message
// ids; values are an 8-byte big-endian creation time in Unix nanoseconds
// followed by the JSON-encoded message.
type Archive struct {
	db *bbolt.DB
}

type record struct {
	ID        int64     `json:"id"`
	Name      string    `json:"name"`
	Email     string    `json:"email"`
	Subject   string    `json:"subject"`
	Body      string    `json:"message"`
	CreatedAt time.Time `json:"date"`
	Status    string    `json:"status"`
}

// New opens (or creates) a Bolt database at path and starts an empty bucket.
// Messages archived by an earlier process are discarded so counts never
// include state from before the restart.
func New(path string) (*Archive, error) {
	db, err := bbolt.Open(path, 0o600, &bbolt.Options{Timeout: 1 * time.Second})
	if err != nil {
		return nil, err
	}
	if err := db.Update(func(tx *bbolt.Tx) error {
		if err := tx.DeleteBucket(bucketMessages); err != nil && !errors.Is(err, bbolt.ErrBucketNotFound) {
			return fmt.Errorf("reset archive: %w", err)
		}
		_, err := tx.CreateBucket(bucketMessages)
		return err
	}); err != nil {
		_ = db.Close()
		return nil, err
	}
	return &Archive{db: db}, nil
}

func (a *Archive) Close() error { return a.db.Close() }

// Put stores msg, replacing any message with the same id.
func (a *Archive) Put(msg domain.Message) error {
	payload, err := json.Marshal(record{
		ID:        msg.ID,
		Name:      msg.Name,
		Email:     msg.Email,
		Subject:   msg.Subject,
		Body:      msg.Body,
		CreatedAt: msg.CreatedAt,
		Status:    string(msg.Status),
	})
	if err != nil {
		return fmt.Errorf("encode message %d: %w", msg.ID, err)
	}

	value := make([]byte, 8+len(payload))
	binary.BigEndian.PutUint64(value, uint64(msg.CreatedAt.UnixNano()))
	copy(value[8:], payload)

	return wrap(a.db.Update(func(tx *bbolt.Tx) error {
		return tx.Bucket(bucketMessages).Put(idKey(msg.ID), value)
	}))
}

// get returns the archived message with the given id.
func (a *Archive) get(id int64) (domain.Message, bool, error) {
	var (
		msg   domain.Message
		found bool
	)
	err := a.db.View(func(tx *bbolt.Tx) error {
		v := tx.Bucket(bucketMessages).Get(idKey(id))
		if v == nil {
			return nil
		}
		m, err := decode(v)
		if err != nil {
			return err
		}
		msg, found = m, true
		return nil
	})
	return msg, found, wrap(err)
}

// CountSince returns the number of archived messages created strictly after t.
// Ids are never below their creation instant in milliseconds, so the scan seeks
// to t's millisecond and filters on the stored creation time.
func (a *Archive) CountSince(t time.Time) (int, error) {
	start := t.UnixMilli()
	if start < 0 {
		start = 0
	}
	cutoff := t.UnixNano()

	n := 0
	err := a.db.View(func(tx *bbolt.Tx) error {
		c := tx.Bucket(bucketMessages).Cursor()
		for k, v := c.Seek(idKey(start)); k != nil; k, v = c.Next() {
			if len(v) < 8 {
				return fmt.Errorf("corrupt archive entry %x", k)
			}
			if int64(binary.BigEndian.Uint64(v[:8])) > cutoff {
				n++
			}
		}
		return nil
	})
	return n, wrap(err)
}

// Len returns the number of archived messages.
func (a *Archive) Len() int {
	n := 0
	_ = a.db.View(func(tx *bbolt.Tx) error {
		n = tx.Bucket(bucketMessages).Stats().KeyN
		return nil
	})
	return n
}

func idKey(id int64) []byte {
	k := make([]byte, 8)
	binary.BigEndian.PutUint64(k, uint64(id))
	return k
}

func decode(v []byte) (domain.Message, error) {
	if len(v) < 8 {
		return domain.Message{}, errors.New("corrupt archive entry")
	}
	var r record
	if err := json.Unmarshal(v[8:], &r); err != nil {
		return domain.Message{}, fmt.Errorf("decode archived message: %w", err)
	}
	return domain.Message{
		ID:        r.ID,
		Name:      r.Name,
		Email:     r.Email,
		Subject:   r.Subject,
		Body:      r.Body,
		CreatedAt: r.CreatedAt,
		Status:    domain.MessageStatus(r.Status),
	}, nil
}

func wrap(err error) error {
	if errors.Is(err, bbolt.ErrDatabaseNotOpen) {
		return ErrArchiveClosed
	}
	return err
}

var _ messages.Archive = (*Archive)(nil)
