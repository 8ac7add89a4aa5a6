// Package testutil provides in-memory stand-ins for the Postgres
// repositories, object storage and the event broker.
package testutil

import (
	"bytes"
	"context"
	"io"
	"sort"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/inkpost/blogapi/internal/services"
	"github.com/inkpost/blogapi/internal/storage"
	"github.com/inkpost/blogapi/internal/store"
	"github.com/inkpost/blogapi/types"
)

// DB is an in-memory database shared by the repository views below. Setting
// Err makes every repository call fail with it.
type DB struct {
	mu       sync.Mutex
	seq      int
	authors  map[string]types.Author
	posts    map[string]types.Post
	comments map[string]types.Comment
	sessions map[string]types.Session
	order    map[string]int

	Err error
}

func NewDB() *DB {
	return &DB{
		authors:  make(map[string]types.Author),
		posts:    make(map[string]types.Post),
		comments: make(map[string]types.Comment),
		sessions: make(map[string]types.Session),
		order:    make(map[string]int),
	}
}

func (d *DB) Authors() *Authors   { return &Authors{d} }
func (d *DB) Posts() *Posts       { return &Posts{d} }
func (d *DB) Comments() *Comments { return &Comments{d} }
func (d *DB) Sessions() *Sessions { return &Sessions{d} }

// Counts reports the number of stored posts and comments.
func (d *DB) Counts() (posts, comments int) {
	d.mu.Lock()
	defer d.mu.Unlock()
	return len(d.posts), len(d.comments)
}

func (d *DB) stamp(id string) {
	d.seq++
	d.order[id] = d.seq
}

// SeedAuthor stores an author whose password is hashed with the cheapest
// bcrypt cost.
func SeedAuthor(t *testing.T, db *DB, email, name, password string) types.Author {
	t.Helper()
	auth := services.NewAuthService(db.Authors(), Hasher())
	author, err := auth.Register(context.Background(), email, name, password)
	if err != nil {
		t.Fatalf("seed author: %v", err)
	}
	return author
}

// Hasher returns a bcrypt hasher fast enough for tests.
func Hasher() services.BcryptHasher {
	return services.BcryptHasher{Cost: 4}
}

type Authors struct{ db *DB }

func (r *Authors) GetByID(_ context.Context, id string) (types.Author, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	if r.db.Err != nil {
		return types.Author{}, r.db.Err
	}
	author, ok := r.db.authors[id]
	if !ok {
		return types.Author{}, store.ErrNotFound
	}
	return author, nil
}

func (r *Authors) GetByEmail(_ context.Context, email string) (types.Author, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	if r.db.Err != nil {
		return types.Author{}, r.db.Err
	}
	for _, author := range r.db.authors {
		if strings.EqualFold(author.Email, email) {
			return author, nil
		}
	}
	return types.Author{}, store.ErrNotFound
}

func (r *Authors) Create(_ context.Context, author types.Author) (types.Author, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	if r.db.Err != nil {
		return types.Author{}, r.db.Err
	}
	for _, existing := range r.db.authors {
		if strings.EqualFold(existing.Email, author.Email) {
			return types.Author{}, store.ErrConflict
		}
	}
	now := time.Now().UTC()
	author.ID = uuid.NewString()
	author.CreatedAt = now
	author.UpdatedAt = now
	r.db.authors[author.ID] = author
	return author, nil
}

type Posts struct{ db *DB }

func (r *Posts) List(_ context.Context) ([]types.Post, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	if r.db.Err != nil {
		return nil, r.db.Err
	}
	posts := make([]types.Post, 0, len(r.db.posts))
	for _, post := range r.db.posts {
		posts = append(posts, post)
	}
	sort.Slice(posts, func(i, j int) bool {
		return r.db.order[posts[i].ID] > r.db.order[posts[j].ID]
	})
	return posts, nil
}

func (r *Posts) GetBySlug(_ context.Context, slug string) (types.Post, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	if r.db.Err != nil {
		return types.Post{}, r.db.Err
	}
	for _, post := range r.db.posts {
		if post.Slug == slug {
			return post, nil
		}
	}
	return types.Post{}, store.ErrNotFound
}

func (r *Posts) Create(_ context.Context, post types.Post) (types.Post, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	if r.db.Err != nil {
		return types.Post{}, r.db.Err
	}
	if r.slugTaken(post.Slug, "") {
		return types.Post{}, store.ErrConflict
	}
	now := time.Now().UTC()
	post.ID = uuid.NewString()
	post.CreatedAt = now
	post.UpdatedAt = now
	r.db.posts[post.ID] = post
	r.db.stamp(post.ID)
	return post, nil
}

func (r *Posts) Update(_ context.Context, post types.Post) (types.Post, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	if r.db.Err != nil {
		return types.Post{}, r.db.Err
	}
	if _, ok := r.db.posts[post.ID]; !ok {
		return types.Post{}, store.ErrNotFound
	}
	if r.slugTaken(post.Slug, post.ID) {
		return types.Post{}, store.ErrConflict
	}
	post.UpdatedAt = time.Now().UTC()
	r.db.posts[post.ID] = post
	return post, nil
}

func (r *Posts) DeleteWithComments(_ context.Context, id string) error {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	if r.db.Err != nil {
		return r.db.Err
	}
	if _, ok := r.db.posts[id]; !ok {
		return store.ErrNotFound
	}
	for commentID, comment := range r.db.comments {
		if comment.PostID == id {
			delete(r.db.comments, commentID)
		}
	}
	delete(r.db.posts, id)
	return nil
}

func (r *Posts) slugTaken(slug, exceptID string) bool {
	for id, post := range r.db.posts {
		if post.Slug == slug && id != exceptID {
			return true
		}
	}
	return false
}

type Comments struct{ db *DB }

func (r *Comments) ListByPost(_ context.Context, postID string) ([]types.Comment, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	if r.db.Err != nil {
		return nil, r.db.Err
	}
	comments := []types.Comment{}
	for _, comment := range r.db.comments {
		if comment.PostID == postID {
			comments = append(comments, comment)
		}
	}
	sort.Slice(comments, func(i, j int) bool {
		return r.db.order[comments[i].ID] > r.db.order[comments[j].ID]
	})
	return comments, nil
}

func (r *Comments) Get(_ context.Context, id string) (types.Comment, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	if r.db.Err != nil {
		return types.Comment{}, r.db.Err
	}
	comment, ok := r.db.comments[id]
	if !ok {
		return types.Comment{}, store.ErrNotFound
	}
	return comment, nil
}

func (r *Comments) Create(_ context.Context, comment types.Comment) (types.Comment, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	if r.db.Err != nil {
		return types.Comment{}, r.db.Err
	}
	if _, ok := r.db.posts[comment.PostID]; !ok {
		return types.Comment{}, store.ErrNotFound
	}
	comment.ID = uuid.NewString()
	comment.CreatedAt = time.Now().UTC()
	r.db.comments[comment.ID] = comment
	r.db.stamp(comment.ID)
	return comment, nil
}

func (r *Comments) Delete(_ context.Context, id string) error {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	if r.db.Err != nil {
		return r.db.Err
	}
	if _, ok := r.db.comments[id]; !ok {
		return store.ErrNotFound
	}
	delete(r.db.comments, id)
	return nil
}

type Sessions struct{ db *DB }

func (r *Sessions) Create(_ context.Context, session types.Session) (types.Session, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	if r.db.Err != nil {
		return types.Session{}, r.db.Err
	}
	if session.ID == "" {
		session.ID = uuid.NewString()
	}
	if session.CreatedAt.IsZero() {
		session.CreatedAt = time.Now().UTC()
	}
	r.db.sessions[session.ID] = session
	return session, nil
}

func (r *Sessions) Get(_ context.Context, id string) (types.Session, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	if r.db.Err != nil {
		return types.Session{}, r.db.Err
	}
	session, ok := r.db.sessions[id]
	if !ok {
		return types.Session{}, store.ErrNotFound
	}
	return session, nil
}

func (r *Sessions) Delete(_ context.Context, id string) error {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	if r.db.Err != nil {
		return r.db.Err
	}
	if _, ok := r.db.sessions[id]; !ok {
		return store.ErrNotFound
	}
	delete(r.db.sessions, id)
	return nil
}

func (r *Sessions) DeleteExpired(_ context.Context, now time.Time) (int64, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	if r.db.Err != nil {
		return 0, r.db.Err
	}
	var removed int64
	for id, session := range r.db.sessions {
		if session.Expired(now) {
			delete(r.db.sessions, id)
			removed++
		}
	}
	return removed, nil
}

// Len reports the number of stored sessions.
func (r *Sessions) Len() int {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	return len(r.db.sessions)
}

// Objects is an in-memory storage.Backend.
type Objects struct {
	mu      sync.Mutex
	objects map[string]object
}

type object struct {
	data        []byte
	contentType string
}

func NewObjects() *Objects {
	return &Objects{objects: make(map[string]object)}
}

func (o *Objects) EnsureBucket(context.Context) error { return nil }

func (o *Objects) Put(_ context.Context, key string, r io.Reader, _ int64, contentType string) error {
	data, err := io.ReadAll(r)
	if err != nil {
		return err
	}
	o.mu.Lock()
	defer o.mu.Unlock()
	o.objects[key] = object{data: data, contentType: contentType}
	return nil
}

func (o *Objects) Open(_ context.Context, key string) (storage.Object, error) {
	o.mu.Lock()
	defer o.mu.Unlock()
	obj, ok := o.objects[key]
	if !ok {
		return storage.Object{}, storage.ErrObjectNotFound
	}
	return storage.Object{
		ReadCloser:  io.NopCloser(bytes.NewReader(obj.data)),
		ContentType: obj.contentType,
		Size:        int64(len(obj.data)),
	}, nil
}

func (o *Objects) Delete(_ context.Context, key string) error {
	o.mu.Lock()
	defer o.mu.Unlock()
	delete(o.objects, key)
	return nil
}

func (o *Objects) Bucket() string { return "memory" }

// Events records published events. Setting Err makes publishing fail.
type Events struct {
	mu     sync.Mutex
	events []types.Event
	Err    error
}

func (e *Events) PublishEvent(_ context.Context, event types.Event) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.Err != nil {
		return e.Err
	}
	e.events = append(e.events, event)
	return nil
}

// Types lists the recorded event types in publish order.
func (e *Events) Types() []string {
	e.mu.Lock()
	defer e.mu.Unlock()
	out := make([]string, 0, len(e.events))
	for _, event := range e.events {
		out = append(out, event.Type)
	}
	return out
}
