package auth

import (
	"github.com/GoFMG-Admin/GoFMG-Admin/internal/document"
)

// DocumentSource hands out the current configuration document.
// Returned documents are treated as read only.
type DocumentSource interface {
	Snapshot() *document.Document
}

// SourceFunc adapts a function to DocumentSource.
type SourceFunc func() *document.Document

// Snapshot implements DocumentSource.
func (f SourceFunc) Snapshot() *document.Document {
	return f()
}

// StaticSource always returns doc.
func StaticSource(doc *document.Document) DocumentSource {
	return SourceFunc(func() *document.Document { return doc })
}

// IdentityStore is read only access to local accounts and profiles.
// A missing document behaves like an empty store so the console stays reachable.
type IdentityStore struct {
	src DocumentSource
}

// NewIdentityStore creates an identity store on top of src.
func NewIdentityStore(src DocumentSource) *IdentityStore {
	return &IdentityStore{src: src}
}

func (s *IdentityStore) document() *document.Document {
	if s == nil || s.src == nil {
		return nil
	}

	return s.src.Snapshot()
}

// FindLocalAccount returns the local account called username.
func (s *IdentityStore) FindLocalAccount(username string) (document.LocalAccount, bool) {
	doc := s.document()
	if doc == nil {
		return document.LocalAccount{}, false
	}

	acc, ok := doc.FindAccount(username)
	if !ok {
		return document.LocalAccount{}, false
	}

	return *acc, true
}

// ListProfiles returns all profiles in configured order.
func (s *IdentityStore) ListProfiles() []document.Profile {
	doc := s.document()
	if doc == nil {
		return nil
	}

	return doc.AdminProfiles
}

// FindProfile returns the profile called name.
func (s *IdentityStore) FindProfile(name string) (document.Profile, bool) {
	doc := s.document()
	if doc == nil {
		return document.Profile{}, false
	}

	p, ok := doc.FindProfile(name)
	if !ok {
		return document.Profile{}, false
	}

	return *p, true
}

// DirectorySettings returns the directory section, disabled when no document is loaded.
func (s *IdentityStore) DirectorySettings() document.DirectorySettings {
	doc := s.document()
	if doc == nil {
		return document.DirectorySettings{}
	}

	return doc.LDAPSettings
}
