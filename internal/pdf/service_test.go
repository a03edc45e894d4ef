package pdf

import (
	"bytes"
	"image"
	"image/color"
	"image/png"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/a3tai/instruction-pdf/internal/document"
	"github.com/a3tai/instruction-pdf/internal/pdf/security"
	"github.com/a3tai/instruction-pdf/internal/record"
)

var fixedNow = time.Date(2024, 5, 1, 10, 0, 0, 0, time.UTC)

func newTestService(t *testing.T, verify bool) (*Service, string) {
	t.Helper()
	dir := t.TempDir()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	svc, err := NewService(ServiceConfig{
		MaxFileSize: 10 * 1024 * 1024,
		Directory:   dir,
		Identity:    "tester@example.com",
		Verify:      verify,
		Logger:      logger,
		Assembler:   document.NewAssembler(document.WithLogger(logger)),
		Details:     ServerDetails{ServerName: "test-server", Version: "1.0.0-test", Language: "en", PageTotal: "fixed"},
		Now:         func() time.Time { return fixedNow },
	})
	require.NoError(t, err)
	return svc, dir
}

func sampleRecord() record.Record {
	return record.Record{
		CarMake:               "X",
		ModuleNo:              "005540",
		Year:                  "2022",
		Revision:              "00",
		ProgramNo:             "14931",
		ProgramDate:           "2024-01-01",
		ConnectionDescription: "Line A\nLine B",
		FullDescription:       "Desc 1",
		ImagePaths:            []string{},
	}
}

func writePNG(t *testing.T, path string) {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, 20, 10))
	for x := 0; x < 20; x++ {
		img.Set(x, 5, color.Black)
	}
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))
	require.NoError(t, os.WriteFile(path, buf.Bytes(), 0o600))
}

func TestNewService(t *testing.T) {
	_, err := NewService(ServiceConfig{})
	assert.Error(t, err)

	svc, dir := newTestService(t, false)
	assert.Equal(t, dir, svc.Directory())
	assert.Equal(t, int64(10*1024*1024), svc.GetMaxFileSize())
}

func TestService_Generate(t *testing.T) {
	svc, dir := newTestService(t, true)
	rec := sampleRecord()

	result, err := svc.Generate(GenerateRequest{Record: &rec})
	require.NoError(t, err)

	assert.True(t, result.Success, result.Message)
	assert.True(t, result.Verified)
	assert.Equal(t, 2, result.Pages)
	assert.Equal(t, filepath.Join(dir, "X-005540_instruction.pdf"), result.Path)
	assert.Positive(t, result.Size)

	inspect, err := svc.InspectFile(InspectFileRequest{Path: "X-005540_instruction.pdf"})
	require.NoError(t, err)
	assert.Equal(t, 2, inspect.Pages)
	assert.Equal(t, "X 005540", inspect.Title)
	assert.Equal(t, "tester@example.com", inspect.Author)
	require.Len(t, inspect.PageTexts, 2)
	assert.Contains(t, squash(inspect.PageTexts[0].Text), "Generated:2024-05-0110:00:00bytester@example.com")
	assert.Contains(t, squash(inspect.PageTexts[1].Text), "Desc1")
}

func TestService_Generate_FromStoredRecordWithOverrides(t *testing.T) {
	svc, dir := newTestService(t, true)

	writePNG(t, filepath.Join(dir, "front.png"))
	stored := sampleRecord()
	stored.ImagePaths = []string{"front.png", "gone.png"}
	_, err := svc.SaveRecord(RecordSaveRequest{Path: "vw.yaml", Record: stored})
	require.NoError(t, err)

	override := record.Record{FullDescription: "Overridden"}
	result, err := svc.Generate(GenerateRequest{
		RecordPath: "vw.yaml",
		Record:     &override,
		OutputPath: "out/vw.pdf",
	})
	require.NoError(t, err)

	// The out directory does not exist, so the render fails without an error.
	assert.False(t, result.Success)
	assert.NotEmpty(t, result.Message)

	require.NoError(t, os.Mkdir(filepath.Join(dir, "out"), 0o750))
	result, err = svc.Generate(GenerateRequest{
		RecordPath: "vw.yaml",
		Record:     &override,
		OutputPath: "out/vw.pdf",
	})
	require.NoError(t, err)
	require.True(t, result.Success, result.Message)
	assert.Equal(t, 2, result.Images)

	inspect, err := svc.InspectFile(InspectFileRequest{Path: result.Path})
	require.NoError(t, err)
	assert.Contains(t, squash(inspect.PageTexts[0].Text), "Filenotfound")
	assert.Contains(t, squash(inspect.PageTexts[1].Text), "Overridden")
}

func TestService_Generate_ImagesOutsideDirectory(t *testing.T) {
	svc, dir := newTestService(t, true)

	elsewhere := t.TempDir()
	photo := filepath.Join(elsewhere, "photo.png")
	writePNG(t, photo)
	writePNG(t, filepath.Join(dir, "inside.png"))

	rec := sampleRecord()
	result, err := svc.Generate(GenerateRequest{
		Record:     &rec,
		ImagePaths: []string{photo, filepath.Join(elsewhere, "missing.png"), "inside.png"},
	})
	require.NoError(t, err)
	require.True(t, result.Success, result.Message)
	assert.Equal(t, 3, result.Images)
	assert.Equal(t, 2, result.Pages)

	inspect, err := svc.InspectFile(InspectFileRequest{Path: result.Path})
	require.NoError(t, err)
	first := squash(inspect.PageTexts[0].Text)
	assert.Equal(t, 2, strings.Count(first, "Error:pathisoutsideconfigureddirectory"))
	assert.NotContains(t, first, "Filenotfound")
}

func TestConfinedImages_Load(t *testing.T) {
	dir := t.TempDir()
	writePNG(t, filepath.Join(dir, "inside.png"))
	paths, err := security.NewPathValidator(dir)
	require.NoError(t, err)

	src := confinedImages{next: document.NewImageLoader(0), paths: paths}

	img, err := src.Load(filepath.Join(dir, "inside.png"))
	require.NoError(t, err)
	assert.Equal(t, 20, img.Width)

	_, err = src.Load(filepath.Join(t.TempDir(), "photo.png"))
	assert.ErrorIs(t, err, security.ErrOutsideDirectory)
}

func TestService_Generate_Validation(t *testing.T) {
	svc, _ := newTestService(t, false)

	tests := []struct {
		name    string
		req     func() GenerateRequest
		wantErr error
		errText string
	}{
		{
			name:    "missing make",
			req:     func() GenerateRequest { return GenerateRequest{Record: &record.Record{ModuleNo: "1"}} },
			wantErr: record.ErrMakeModelRequired,
		},
		{
			name: "bad program date",
			req: func() GenerateRequest {
				rec := sampleRecord()
				rec.ProgramDate = "01.01.2024"
				return GenerateRequest{Record: &rec}
			},
			wantErr: record.ErrInvalidProgramDate,
		},
		{
			name: "output outside directory",
			req: func() GenerateRequest {
				rec := sampleRecord()
				return GenerateRequest{Record: &rec, OutputPath: "../escape.pdf"}
			},
			wantErr: security.ErrOutsideDirectory,
		},
		{
			name: "output not a pdf",
			req: func() GenerateRequest {
				rec := sampleRecord()
				return GenerateRequest{Record: &rec, OutputPath: "out.txt"}
			},
			errText: ".pdf extension",
		},
		{
			name:    "missing record file",
			req:     func() GenerateRequest { return GenerateRequest{RecordPath: "nope.json"} },
			errText: "nope.json",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := svc.Generate(tt.req())
			require.Error(t, err)
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
			}
			if tt.errText != "" {
				assert.Contains(t, err.Error(), tt.errText)
			}
		})
	}
}

func TestService_SaveAndLoadRecord(t *testing.T) {
	svc, dir := newTestService(t, false)
	rec := sampleRecord()
	rec.CarMake = "Škoda Octavia"

	saved, err := svc.SaveRecord(RecordSaveRequest{Record: rec})
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, "Škoda Octavia-005540.json"), saved.Path)
	assert.Equal(t, "json", saved.Format)
	assert.Positive(t, saved.Size)

	raw, err := os.ReadFile(saved.Path)
	require.NoError(t, err)
	assert.Contains(t, string(raw), "Škoda Octavia")

	loaded, err := svc.LoadRecord(RecordLoadRequest{Path: filepath.Base(saved.Path)})
	require.NoError(t, err)
	assert.Equal(t, rec, loaded.Record)
}

func TestService_SaveRecord_Errors(t *testing.T) {
	svc, _ := newTestService(t, false)

	_, err := svc.SaveRecord(RecordSaveRequest{Path: "a.txt", Record: sampleRecord()})
	assert.ErrorContains(t, err, "record file must end in")

	_, err = svc.SaveRecord(RecordSaveRequest{Path: "../a.json", Record: sampleRecord()})
	assert.ErrorIs(t, err, security.ErrOutsideDirectory)

	bad := sampleRecord()
	bad.ProgramDate = "tomorrow"
	_, err = svc.SaveRecord(RecordSaveRequest{Record: bad})
	assert.ErrorIs(t, err, record.ErrInvalidProgramDate)
}

func TestService_ListFiles(t *testing.T) {
	svc, dir := newTestService(t, false)

	_, err := svc.SaveRecord(RecordSaveRequest{Path: "vw-005540.json", Record: sampleRecord()})
	require.NoError(t, err)
	_, err = svc.SaveRecord(RecordSaveRequest{Path: "sub/audi-77.yaml", Record: sampleRecord()})
	require.NoError(t, err)
	rec := sampleRecord()
	_, err = svc.Generate(GenerateRequest{Record: &rec, OutputPath: "vw-005540.pdf"})
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(filepath.Join(dir, "notes.txt"), []byte("x"), 0o600))

	all, err := svc.ListFiles(ListFilesRequest{})
	require.NoError(t, err)
	assert.Equal(t, 3, all.TotalCount)

	records, err := svc.ListFiles(ListFilesRequest{Kind: KindRecord})
	require.NoError(t, err)
	assert.Equal(t, 2, records.TotalCount)
	for _, f := range records.Files {
		assert.Equal(t, KindRecord, f.Kind)
	}

	byQuery, err := svc.ListFiles(ListFilesRequest{Query: "005540"})
	require.NoError(t, err)
	assert.Equal(t, 2, byQuery.TotalCount)

	sub, err := svc.ListFiles(ListFilesRequest{Directory: "sub"})
	require.NoError(t, err)
	require.Len(t, sub.Files, 1)
	assert.Equal(t, "audi-77.yaml", sub.Files[0].Name)

	missing, err := svc.ListFiles(ListFilesRequest{Directory: "later"})
	require.NoError(t, err)
	assert.Empty(t, missing.Files)

	_, err = svc.ListFiles(ListFilesRequest{Directory: ".."})
	assert.ErrorIs(t, err, security.ErrOutsideDirectory)

	_, err = svc.ListFiles(ListFilesRequest{Kind: "images"})
	assert.ErrorContains(t, err, "invalid kind")
}

func TestService_ValidateFile(t *testing.T) {
	svc, dir := newTestService(t, false)
	rec := sampleRecord()
	result, err := svc.Generate(GenerateRequest{Record: &rec})
	require.NoError(t, err)
	require.True(t, result.Success)

	valid, err := svc.ValidateFile(ValidateFileRequest{Path: result.Path})
	require.NoError(t, err)
	assert.True(t, valid.Valid, valid.Message)
	assert.Equal(t, 2, valid.Pages)

	require.NoError(t, os.WriteFile(filepath.Join(dir, "broken.pdf"), []byte("%PDF-1.4 nothing"), 0o600))
	broken, err := svc.ValidateFile(ValidateFileRequest{Path: "broken.pdf"})
	require.NoError(t, err)
	assert.False(t, broken.Valid)
	assert.NotEmpty(t, broken.Message)

	_, err = svc.ValidateFile(ValidateFileRequest{Path: "/etc/hosts"})
	assert.ErrorIs(t, err, security.ErrOutsideDirectory)
}

func squash(s string) string {
	return strings.Join(strings.Fields(s), "")
}
