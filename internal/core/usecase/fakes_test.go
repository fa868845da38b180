package usecase

import (
	"bytes"
	"context"
	"errors"
	"io"
	"strings"

	"github.com/kirillkom/docflow/internal/core/domain"
)

type userRepoFake struct {
	byID      map[string]domain.User
	createErr error
	updated   *domain.User
	deleted   string
}

func newUserRepoFake(users ...domain.User) *userRepoFake {
	f := &userRepoFake{byID: map[string]domain.User{}}
	for _, u := range users {
		f.byID[u.ID] = u
	}
	return f
}

func (f *userRepoFake) Create(_ context.Context, u *domain.User) error {
	if f.createErr != nil {
		return f.createErr
	}
	f.byID[u.ID] = *u
	return nil
}

func (f *userRepoFake) GetByID(_ context.Context, id string) (*domain.User, error) {
	u, ok := f.byID[id]
	if !ok {
		return nil, domain.WrapError(domain.ErrNotFound, "get user", errors.New("no rows"))
	}
	return &u, nil
}

func (f *userRepoFake) GetByEmail(_ context.Context, email string) (*domain.User, error) {
	for _, u := range f.byID {
		if u.Email == email {
			found := u
			return &found, nil
		}
	}
	return nil, domain.WrapError(domain.ErrNotFound, "get user", errors.New("no rows"))
}

func (f *userRepoFake) List(context.Context) ([]domain.User, error) {
	out := make([]domain.User, 0, len(f.byID))
	for _, u := range f.byID {
		out = append(out, u)
	}
	return out, nil
}

func (f *userRepoFake) Update(_ context.Context, u *domain.User) error {
	copyUser := *u
	f.updated = &copyUser
	f.byID[u.ID] = copyUser
	return nil
}

func (f *userRepoFake) Delete(_ context.Context, id string) error {
	f.deleted = id
	delete(f.byID, id)
	return nil
}

// hasherFake stores passwords as "hashed:<password>".
type hasherFake struct {
	compares int
}

func (f *hasherFake) Hash(password string) (string, error) {
	return "hashed:" + password, nil
}

func (f *hasherFake) Compare(hash, password string) error {
	f.compares++
	if hash != "hashed:"+password {
		return errors.New("mismatch")
	}
	return nil
}

type tokenFake struct {
	signed  []domain.SessionClaims
	claims  domain.SessionClaims
	verErr  error
	signErr error
}

func (f *tokenFake) Sign(c domain.SessionClaims) (string, error) {
	if f.signErr != nil {
		return "", f.signErr
	}
	f.signed = append(f.signed, c)
	return "token-for-" + c.Subject, nil
}

func (f *tokenFake) Verify(string) (domain.SessionClaims, error) {
	if f.verErr != nil {
		return domain.SessionClaims{}, f.verErr
	}
	return f.claims, nil
}

type documentRepoFake struct {
	docs      map[string]domain.Document
	createErr error
	updateErr error
	deleted   string
}

func newDocumentRepoFake(docs ...domain.Document) *documentRepoFake {
	f := &documentRepoFake{docs: map[string]domain.Document{}}
	for _, d := range docs {
		f.docs[d.ID] = d
	}
	return f
}

func (f *documentRepoFake) GetByID(_ context.Context, id string) (*domain.Document, error) {
	d, ok := f.docs[id]
	if !ok {
		return nil, domain.WrapError(domain.ErrNotFound, "get document", errors.New("no rows"))
	}
	return &d, nil
}

func (f *documentRepoFake) Create(_ context.Context, d *domain.Document) error {
	if f.createErr != nil {
		return f.createErr
	}
	f.docs[d.ID] = *d
	return nil
}

func (f *documentRepoFake) List(_ context.Context, page domain.PageRequest) (domain.Page[domain.Document], error) {
	items := make([]domain.Document, 0, len(f.docs))
	for _, d := range f.docs {
		items = append(items, d)
	}
	return domain.Page[domain.Document]{Items: items, Total: len(items)}, nil
}

func (f *documentRepoFake) Update(_ context.Context, d *domain.Document) error {
	if f.updateErr != nil {
		return f.updateErr
	}
	f.docs[d.ID] = *d
	return nil
}

func (f *documentRepoFake) Delete(_ context.Context, id string) error {
	f.deleted = id
	delete(f.docs, id)
	return nil
}

type storageFake struct {
	files   map[string]string
	removed []string
	saveErr error
	openErr error
}

func newStorageFake() *storageFake {
	return &storageFake{files: map[string]string{}}
}

func (f *storageFake) Save(_ context.Context, key string, data io.Reader) (string, error) {
	if f.saveErr != nil {
		return "", f.saveErr
	}
	raw, err := io.ReadAll(data)
	if err != nil {
		return "", err
	}
	path := "/uploads/" + key
	f.files[path] = string(raw)
	return path, nil
}

func (f *storageFake) Open(_ context.Context, key string) (io.ReadCloser, error) {
	if f.openErr != nil {
		return nil, f.openErr
	}
	return io.NopCloser(bytes.NewReader([]byte(f.files[key]))), nil
}

func (f *storageFake) Remove(_ context.Context, path string) error {
	f.removed = append(f.removed, path)
	delete(f.files, path)
	return nil
}

func upload(name, body string) *domain.DocumentUpload {
	return &domain.DocumentUpload{
		FileName: name,
		MimeType: "application/pdf",
		Size:     int64(len(body)),
		Body:     strings.NewReader(body),
	}
}
