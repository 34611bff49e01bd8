// Package results reads the per-item offsets files written by the scoring stage.
package results

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"math"
	"os"
	"strconv"
	"strings"

	"github.com/farcloser/primordium/fault"

	"github.com/farcloser/avsync/internal/types"
)

// HeaderToken must start the first line of an offsets file.
const HeaderToken = "track_id"

const minFields = 4

var (
	errHeader     = errors.New("header does not start with " + HeaderToken)
	errNoRows     = errors.New("no valid data rows")
	errEmpty      = errors.New("empty file")
	errFewFields  = errors.New("fewer than four fields")
	errFrames     = errors.New("offset_frames is not an integer")
	errSeconds    = errors.New("offset_seconds is not a finite number")
	errConfidence = errors.New("confidence is not a finite number")
	errNegative   = errors.New("confidence is negative")
)

// ParseResult separates parsed records from skipped lines. A result is Absent when the file is missing,
// unreadable, has a wrong header or yields no record; absent results are excluded from aggregation.
type ParseResult struct {
	Path         string               `json:"path"`
	Records      []types.OffsetRecord `json:"records"`
	Skipped      []types.SkippedLine  `json:"skipped"`
	Absent       bool                 `json:"absent"`
	AbsentReason string               `json:"absent_reason,omitempty"`
}

// ParseFile opens and parses an offsets file. It never fails: problems are reported through the result.
func ParseFile(path string) ParseResult {
	file, err := os.Open(path) //nolint:gosec // offsets paths come from the output tree walk
	if err != nil {
		return ParseResult{
			Path:         path,
			Absent:       true,
			AbsentReason: fmt.Errorf("%w: %w", fault.ErrReadFailure, err).Error(),
		}
	}
	defer file.Close()

	return Parse(file, path)
}

// Parse reads an offsets file: a header line starting with track_id, then whitespace-separated rows of
// track_id, offset_frames, offset_seconds, confidence and an optional avg_min_dist.
func Parse(reader io.Reader, name string) ParseResult {
	result := ParseResult{Path: name}
	buffered := bufio.NewReader(reader)

	header, err := readLine(buffered)
	if err != nil && !errors.Is(err, io.EOF) {
		return absent(result, fmt.Errorf("%w: %w", fault.ErrReadFailure, err))
	}

	if strings.TrimSpace(header) == "" && errors.Is(err, io.EOF) {
		return absent(result, errEmpty)
	}

	if !strings.HasPrefix(strings.TrimLeft(strings.TrimPrefix(header, "\ufeff"), " \t"), HeaderToken) {
		return absent(result, errHeader)
	}

	lineNumber := 1
	row := 0

	for !errors.Is(err, io.EOF) {
		var line string

		line, err = readLine(buffered)
		if err != nil && !errors.Is(err, io.EOF) {
			// Keep what was parsed so far.
			result.Skipped = append(result.Skipped, types.SkippedLine{
				Line:   lineNumber + 1,
				Reason: fmt.Errorf("%w: %w", fault.ErrReadFailure, err).Error(),
			})

			break
		}

		lineNumber++

		if strings.TrimSpace(line) == "" {
			continue
		}

		record, parseErr := parseRow(line, row)
		row++

		if parseErr != nil {
			result.Skipped = append(result.Skipped, types.SkippedLine{
				Line:   lineNumber,
				Text:   strings.TrimRight(line, "\r\n"),
				Reason: parseErr.Error(),
			})

			continue
		}

		result.Records = append(result.Records, record)
	}

	if len(result.Records) == 0 {
		return absent(result, errNoRows)
	}

	return result
}

func parseRow(line string, row int) (types.OffsetRecord, error) {
	fields := strings.Fields(line)
	if len(fields) < minFields {
		return types.OffsetRecord{}, fmt.Errorf("%w: got %d", errFewFields, len(fields))
	}

	frames, err := strconv.Atoi(fields[1])
	if err != nil {
		return types.OffsetRecord{}, fmt.Errorf("%w: %q", errFrames, fields[1])
	}

	seconds, err := parseFinite(fields[2])
	if err != nil {
		return types.OffsetRecord{}, fmt.Errorf("%w: %q", errSeconds, fields[2])
	}

	confidence, err := parseFinite(fields[3])
	if err != nil {
		return types.OffsetRecord{}, fmt.Errorf("%w: %q", errConfidence, fields[3])
	}

	if confidence < 0 {
		return types.OffsetRecord{}, fmt.Errorf("%w: %q", errNegative, fields[3])
	}

	record := types.OffsetRecord{
		TrackID:       row,
		OffsetFrames:  frames,
		OffsetSeconds: seconds,
		Confidence:    confidence,
	}

	if trackID, err := strconv.Atoi(fields[0]); err == nil {
		record.TrackID = trackID
	}

	if len(fields) > minFields {
		if dist, err := parseFinite(fields[4]); err == nil {
			record.AvgMinDist = &dist
		}
	}

	return record, nil
}

func parseFinite(field string) (float64, error) {
	value, err := strconv.ParseFloat(field, 64)
	if err != nil {
		return 0, err
	}

	if math.IsNaN(value) || math.IsInf(value, 0) {
		return 0, strconv.ErrRange
	}

	return value, nil
}

// readLine returns a full line, however long, including its terminator.
func readLine(reader *bufio.Reader) (string, error) {
	return reader.ReadString('\n')
}

func absent(result ParseResult, reason error) ParseResult {
	result.Records = nil
	result.Absent = true
	result.AbsentReason = reason.Error()

	return result
}
