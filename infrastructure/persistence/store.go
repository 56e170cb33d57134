package persistence

import (
	"encoding/json"
	"os"
	"path/filepath"

	"go.uber.org/zap"

	"conceptgraph-backend/domain/core/aggregates"
	"conceptgraph-backend/domain/lexicon"
	pkgerrors "conceptgraph-backend/pkg/errors"
)

// Store persists graph documents to a single file. Writes go through a
// temporary file and a rename, so a crash mid-write never leaves a truncated
// document behind.
type Store struct {
	path   string
	logger *zap.Logger
}

// NewStore creates a file store at the given path.
func NewStore(path string, logger *zap.Logger) (*Store, error) {
	if path == "" {
		return nil, pkgerrors.NewValidationError(pkgerrors.CodeInvalidArgument, "store path is required")
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Store{path: path, logger: logger}, nil
}

// Path returns the document location
func (s *Store) Path() string {
	return s.path
}

// Exists reports whether a document is present on disk
func (s *Store) Exists() bool {
	_, err := os.Stat(s.path)
	return err == nil
}

// Save encodes the graph and writes the document atomically.
func (s *Store) Save(graph *aggregates.ConceptGraph) error {
	doc, err := Encode(graph)
	if err != nil {
		return err
	}

	data, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return pkgerrors.NewInternalError("encoding graph document", err)
	}

	dir := filepath.Dir(s.path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return pkgerrors.Wrap(err, "creating document directory")
	}

	tmp, err := os.CreateTemp(dir, filepath.Base(s.path)+".tmp-*")
	if err != nil {
		return pkgerrors.Wrap(err, "creating temporary document")
	}
	tmpName := tmp.Name()
	defer os.Remove(tmpName)

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return pkgerrors.Wrap(err, "writing graph document")
	}
	if err := tmp.Close(); err != nil {
		return pkgerrors.Wrap(err, "closing graph document")
	}
	if err := os.Rename(tmpName, s.path); err != nil {
		return pkgerrors.Wrap(err, "replacing graph document")
	}

	s.logger.Debug("graph document saved",
		zap.String("path", s.path),
		zap.Int("nodes", len(doc.Nodes)),
		zap.Int("edges", len(doc.Edges)),
	)
	return nil
}

// Load reads the document and rebuilds the graph against the lexicon.
func (s *Store) Load(lex lexicon.Lexicon) (*aggregates.ConceptGraph, error) {
	data, err := os.ReadFile(s.path)
	if err != nil {
		return nil, pkgerrors.Wrap(err, "reading graph document")
	}

	var doc Document
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, pkgerrors.NewInternalError("parsing graph document", err)
	}

	graph, err := Decode(&doc, lex)
	if err != nil {
		return nil, err
	}

	s.logger.Debug("graph document loaded",
		zap.String("path", s.path),
		zap.Int("nodes", graph.NodeCount()),
		zap.Int("edges", graph.EdgeCount()),
	)
	return graph, nil
}
