package reports

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/sunyuchen88/guomaojiance/pkg/config"
	pkgerrors "github.com/sunyuchen88/guomaojiance/pkg/errors"
)

func newTestService(t *testing.T) *Service {
	t.Helper()
	svc, err := NewService(config.ReportsConfig{
		Dir:         t.TempDir(),
		MaxUploadMB: 1,
	}, nil)
	require.NoError(t, err)
	return svc
}

func TestSaveAndOpenReport(t *testing.T) {
	svc := newTestService(t)

	saved, err := svc.Save(context.Background(), "result.pdf", strings.NewReader("%PDF-1.7 fake body"))
	require.NoError(t, err)
	require.True(t, strings.HasPrefix(saved.URL, "/reports/"))
	require.True(t, strings.HasSuffix(saved.FileName, ".pdf"))

	reader, err := svc.Open(strings.TrimPrefix(saved.URL, "/reports/"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = reader.Close() })
}

func TestSaveRejectsNonPDFContent(t *testing.T) {
	svc := newTestService(t)

	_, err := svc.Save(context.Background(), "result.pdf", strings.NewReader("<html>nope</html>"))
	require.True(t, pkgerrors.HasCode(err, pkgerrors.CodeValidation))
}

func TestSaveRejectsWrongExtension(t *testing.T) {
	svc := newTestService(t)

	_, err := svc.Save(context.Background(), "result.exe", strings.NewReader("%PDF-1.7"))
	require.True(t, pkgerrors.HasCode(err, pkgerrors.CodeValidation))
}

func TestSaveRejectsOversizedFile(t *testing.T) {
	svc := newTestService(t)

	huge := "%PDF" + strings.Repeat("x", 2*1024*1024)
	_, err := svc.Save(context.Background(), "big.pdf", strings.NewReader(huge))
	require.True(t, pkgerrors.HasCode(err, pkgerrors.CodeValidation))
}

func TestOpenRejectsPathTraversal(t *testing.T) {
	svc := newTestService(t)

	_, err := svc.Open("../../etc/passwd")
	require.True(t, pkgerrors.HasCode(err, pkgerrors.CodeValidation))
}

func TestOpenMissingReport(t *testing.T) {
	svc := newTestService(t)

	_, err := svc.Open("2025/06/missing.pdf")
	require.True(t, pkgerrors.HasCode(err, pkgerrors.CodeNotFound))
}
