package history

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"
)

const (
	DefaultStorageFileName = ".split-pay-history.json"
)

// Record is one completed (or failed) settlement kept for local reference.
// The transfer state itself is discarded after every attempt; this is the
// only durable trace.
type Record struct {
	ID               string    `json:"id"`
	Timestamp        time.Time `json:"timestamp"`
	SourceChain      string    `json:"source_chain"`
	DestinationChain string    `json:"destination_chain"`
	Amount           string    `json:"amount"` // smallest token unit
	Method           string    `json:"method"`
	BurnTxHash       string    `json:"burn_tx_hash,omitempty"`
	MintTxHash       string    `json:"mint_tx_hash,omitempty"`
	GroupID          int64     `json:"group_id,omitempty"`
	ItemIDs          []int64   `json:"item_ids,omitempty"`
	Status           string    `json:"status"`
}

// Storage handles persistence of settlement records
type Storage struct {
	filePath string
	mu       sync.RWMutex
	records  []Record
}

// recordStorage represents the JSON structure for storage
type recordStorage struct {
	Records []Record `json:"records"`
}

// NewStorage creates a new storage instance
func NewStorage(filePath string) (*Storage, error) {
	if filePath == "" {
		// Default to home directory
		home, err := os.UserHomeDir()
		if err != nil {
			return nil, fmt.Errorf("failed to get home directory: %w", err)
		}
		filePath = filepath.Join(home, DefaultStorageFileName)
	}

	storage := &Storage{filePath: filePath}

	// Load existing records if file exists
	if err := storage.load(); err != nil {
		// If file doesn't exist, that's okay - we'll create it on first save
		if !os.IsNotExist(err) {
			return nil, fmt.Errorf("failed to load history: %w", err)
		}
	}

	return storage, nil
}

// Append records a settlement and persists the file
func (s *Storage) Append(record Record) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if record.ID == "" {
		record.ID = fmt.Sprintf("settle-%d", time.Now().UnixNano())
	}
	if record.Timestamp.IsZero() {
		record.Timestamp = time.Now()
	}
	s.records = append(s.records, record)

	return s.save()
}

// List returns all records, newest last
func (s *Storage) List() []Record {
	s.mu.RLock()
	defer s.mu.RUnlock()

	records := make([]Record, len(s.records))
	copy(records, s.records)
	return records
}

// load reads records from the storage file
func (s *Storage) load() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	data, err := os.ReadFile(s.filePath)
	if err != nil {
		return err
	}

	var stored recordStorage
	if err := json.Unmarshal(data, &stored); err != nil {
		return fmt.Errorf("failed to unmarshal history: %w", err)
	}

	s.records = stored.Records
	return nil
}

// save writes records to the storage file (must be called with lock held)
func (s *Storage) save() error {
	data, err := json.MarshalIndent(recordStorage{Records: s.records}, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal history: %w", err)
	}

	// Ensure directory exists
	dir := filepath.Dir(s.filePath)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create directory: %w", err)
	}

	// Write to temporary file first, then rename for atomic write
	tempFile := s.filePath + ".tmp"
	if err := os.WriteFile(tempFile, data, 0600); err != nil {
		return fmt.Errorf("failed to write history: %w", err)
	}
	if err := os.Rename(tempFile, s.filePath); err != nil {
		return fmt.Errorf("failed to replace history file: %w", err)
	}

	return nil
}
