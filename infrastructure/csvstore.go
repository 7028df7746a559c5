package infrastructure

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strconv"
	"sync"

	"wordbearer/domain"
)

// CSVResultStore keeps one <league>-results.csv per league. Booleans are
// written as True/False so files stay readable by older tooling.
type CSVResultStore struct {
	dir string
	mu  sync.Mutex
}

func NewCSVResultStore(dir string) (*CSVResultStore, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create results dir: %w", err)
	}
	return &CSVResultStore{dir: dir}, nil
}

func (s *CSVResultStore) Path(league string) string {
	return filepath.Join(s.dir, domain.SanitizeName(league)+"-results.csv")
}

func (s *CSVResultStore) AppendResult(_ context.Context, league string, r domain.MatchResult) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	path := s.Path(league)
	_, statErr := os.Stat(path)
	isNew := errors.Is(statErr, fs.ErrNotExist)

	f, err := os.OpenFile(path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		return fmt.Errorf("open results: %w", err)
	}
	defer f.Close()

	w := csv.NewWriter(f)
	w.UseCRLF = true
	if isNew {
		if err := w.Write(domain.ResultColumns); err != nil {
			return fmt.Errorf("write results header: %w", err)
		}
	}
	if err := w.Write(encodeResult(r)); err != nil {
		return fmt.Errorf("write result: %w", err)
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return fmt.Errorf("write result: %w", err)
	}
	return f.Close()
}

// Results reads a league's results in file order, creating an empty file
// with only the header if none exists yet.
func (s *CSVResultStore) Results(_ context.Context, league string) ([]domain.MatchResult, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	path := s.Path(league)
	f, err := os.Open(path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, writeHeaderOnly(path)
	}
	if err != nil {
		return nil, fmt.Errorf("open results: %w", err)
	}
	defer f.Close()

	r := csv.NewReader(f)
	header, err := r.Read()
	if errors.Is(err, io.EOF) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read results header: %w", err)
	}
	cols := map[string]int{}
	for i, name := range header {
		cols[name] = i
	}
	for _, name := range domain.ResultColumns {
		if _, ok := cols[name]; !ok {
			return nil, fmt.Errorf("results file %s has no %q column", path, name)
		}
	}

	var results []domain.MatchResult
	for line := 2; ; line++ {
		row, err := r.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("read results: %w", err)
		}
		res, err := decodeResult(row, cols)
		if err != nil {
			return nil, fmt.Errorf("%s line %d: %w", filepath.Base(path), line, err)
		}
		results = append(results, res)
	}
	return results, nil
}

func writeHeaderOnly(path string) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create results: %w", err)
	}
	defer f.Close()
	w := csv.NewWriter(f)
	w.UseCRLF = true
	if err := w.Write(domain.ResultColumns); err != nil {
		return err
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return err
	}
	return f.Close()
}

func encodeResult(r domain.MatchResult) []string {
	return []string{
		r.Player,
		r.Opponent,
		strconv.FormatInt(r.Time, 10),
		pyBool(r.PlayerVictory),
		pyBool(r.Draw),
		strconv.Itoa(r.VPPlayer),
		strconv.Itoa(r.VPOpponent),
		r.LeagueName,
	}
}

func pyBool(b bool) string {
	if b {
		return "True"
	}
	return "False"
}

func decodeResult(row []string, cols map[string]int) (domain.MatchResult, error) {
	field := func(name string) string {
		if i := cols[name]; i < len(row) {
			return row[i]
		}
		return ""
	}

	var (
		res  domain.MatchResult
		errs []error
	)
	parseInt := func(name string) int64 {
		v, err := strconv.ParseInt(field(name), 10, 64)
		if err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", name, err))
		}
		return v
	}
	parseBool := func(name string) bool {
		v, err := strconv.ParseBool(field(name))
		if err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", name, err))
		}
		return v
	}

	res.Player = field("player")
	res.Opponent = field("opponent")
	res.Time = parseInt("time")
	res.PlayerVictory = parseBool("player_victory")
	res.Draw = parseBool("draw")
	res.VPPlayer = int(parseInt("vp_player"))
	res.VPOpponent = int(parseInt("vp_opponent"))
	res.LeagueName = field("league_name")
	return res, errors.Join(errs...)
}
