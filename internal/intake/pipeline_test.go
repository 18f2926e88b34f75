package intake

import (
	"context"
	"errors"
	"fmt"
	"image/color"
	"testing"

	"studybridge/pkg/types"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeUploader struct {
	uploaded []Candidate
	failOn   map[string]error
}

func (f *fakeUploader) Upload(_ context.Context, c Candidate) (UploadResult, error) {
	if err, ok := f.failOn[c.FileName]; ok {
		return UploadResult{}, err
	}
	f.uploaded = append(f.uploaded, c)
	return UploadResult{
		StorageKey: fmt.Sprintf("documents/%s", c.FileName),
		PublicURL:  fmt.Sprintf("https://cdn.example.com/documents/%s", c.FileName),
	}, nil
}

type fakeRecorder struct {
	docs []*types.StudentDocument
	err  error
}

func (f *fakeRecorder) CreateDocument(_ context.Context, doc *types.StudentDocument) error {
	if f.err != nil {
		return f.err
	}
	f.docs = append(f.docs, doc)
	return nil
}

func goodPDF(name string) Candidate {
	return Candidate{
		FileName:  name,
		MediaType: "application/pdf",
		Size:      1024,
		Content:   []byte("%PDF-1.4 fake"),
	}
}

func newTestPipeline(uploader *fakeUploader, recorder *fakeRecorder) *Pipeline {
	return NewPipeline(uploader, recorder, nil, "student-1")
}

func TestPipeline_CategoryPrecondition(t *testing.T) {
	uploader := &fakeUploader{}
	pipe := newTestPipeline(uploader, &fakeRecorder{})

	var reported string
	pipe.OnError = func(msg string) { reported = msg }

	err := pipe.AcceptFiles(context.Background(), []Candidate{goodPDF("transcript.pdf")})

	require.ErrorIs(t, err, ErrNoCategory)
	assert.Equal(t, "select a document category first", reported)
	assert.Empty(t, uploader.uploaded)
	assert.Empty(t, pipe.Issues(), "no validation should have run")
}

func TestPipeline_CleanBatchUploadsSequentially(t *testing.T) {
	uploader := &fakeUploader{}
	recorder := &fakeRecorder{}
	pipe := newTestPipeline(uploader, recorder)
	pipe.SelectCategory(types.CategoryTranscripts)

	var completed []*types.StudentDocument
	pipe.OnComplete = func(doc *types.StudentDocument) { completed = append(completed, doc) }

	var progress []string
	pipe.OnProgress = func(file string, pct int) {
		progress = append(progress, fmt.Sprintf("%s:%d", file, pct))
	}

	err := pipe.AcceptFiles(context.Background(), []Candidate{
		goodPDF("sem1.pdf"),
		goodPDF("sem2.pdf"),
	})

	require.NoError(t, err)
	require.Len(t, uploader.uploaded, 2)
	assert.Equal(t, "sem1.pdf", uploader.uploaded[0].FileName)
	assert.Equal(t, "sem2.pdf", uploader.uploaded[1].FileName)

	require.Len(t, completed, 2)
	doc := completed[0]
	assert.NotEmpty(t, doc.ID)
	assert.Equal(t, "student-1", doc.StudentID)
	assert.Equal(t, types.CategoryTranscripts, doc.Category)
	assert.Equal(t, "documents/sem1.pdf", doc.StorageKey)
	assert.False(t, doc.UploadedAt.IsZero())

	assert.Equal(t, []string{
		"sem1.pdf:0", "sem1.pdf:60", "sem1.pdf:100",
		"sem2.pdf:0", "sem2.pdf:60", "sem2.pdf:100",
	}, progress)

	assert.Empty(t, pipe.Pending())
}

func TestPipeline_BatchAtomicity(t *testing.T) {
	uploader := &fakeUploader{}
	pipe := newTestPipeline(uploader, &fakeRecorder{})
	pipe.SelectCategory(types.CategoryTranscripts)

	err := pipe.AcceptFiles(context.Background(), []Candidate{
		goodPDF("fine.pdf"),
		{FileName: "broken.pdf", MediaType: "application/pdf", Size: 0},
	})

	require.ErrorIs(t, err, ErrBatchBlocked)
	assert.Empty(t, uploader.uploaded, "no file in a blocked batch may reach storage")
	assert.True(t, HasBlocking(pipe.Issues()))
	assert.Len(t, pipe.Pending(), 2, "blocked batch stays staged for correction")
}

func TestPipeline_RemoveFileThenFlush(t *testing.T) {
	uploader := &fakeUploader{}
	pipe := newTestPipeline(uploader, &fakeRecorder{})
	pipe.SelectCategory(types.CategoryPassport)

	_ = pipe.AcceptFiles(context.Background(), []Candidate{
		goodPDF("fine.pdf"),
		{FileName: "broken.pdf", MediaType: "application/pdf", Size: 0},
	})
	require.Empty(t, uploader.uploaded)

	pipe.RemoveFile(1)
	assert.False(t, HasBlocking(pipe.Issues()))

	require.NoError(t, pipe.Flush(context.Background()))
	require.Len(t, uploader.uploaded, 1)
	assert.Equal(t, "fine.pdf", uploader.uploaded[0].FileName)
}

func TestPipeline_RemoveFileOutOfRange(t *testing.T) {
	pipe := newTestPipeline(&fakeUploader{}, &fakeRecorder{})
	pipe.SelectCategory(types.CategoryPassport)

	pipe.RemoveFile(0)
	pipe.RemoveFile(-1)
	assert.Empty(t, pipe.Pending())
}

func TestPipeline_TransportErrorSurfacedVerbatim(t *testing.T) {
	transportErr := errors.New("storage node unavailable: i/o timeout")
	uploader := &fakeUploader{failOn: map[string]error{"sem1.pdf": transportErr}}
	recorder := &fakeRecorder{}
	pipe := newTestPipeline(uploader, recorder)
	pipe.SelectCategory(types.CategoryTranscripts)

	var reported []string
	pipe.OnError = func(msg string) { reported = append(reported, msg) }

	err := pipe.AcceptFiles(context.Background(), []Candidate{
		goodPDF("sem1.pdf"),
		goodPDF("sem2.pdf"),
	})

	require.ErrorIs(t, err, transportErr)
	require.Len(t, reported, 1)
	assert.Equal(t, transportErr.Error(), reported[0])

	// the remaining file still uploads, strictly after the failed one
	require.Len(t, uploader.uploaded, 1)
	assert.Equal(t, "sem2.pdf", uploader.uploaded[0].FileName)
	require.Len(t, recorder.docs, 1)
}

func TestPipeline_WarningsDoNotBlock(t *testing.T) {
	content := encodePNG(t, flatImage(16, 16, color.RGBA{R: 100, G: 100, B: 100, A: 255}))
	uploader := &fakeUploader{}
	pipe := newTestPipeline(uploader, &fakeRecorder{})
	pipe.SelectCategory(types.CategoryPassport)

	err := pipe.AcceptFiles(context.Background(), []Candidate{{
		FileName:  "passport.png",
		MediaType: "image/png",
		Size:      int64(len(content)),
		Content:   content,
	}})

	require.NoError(t, err)
	require.Len(t, uploader.uploaded, 1)
	assert.Equal(t, 1, countSeverity(pipe.Issues(), SeverityWarning))
}
