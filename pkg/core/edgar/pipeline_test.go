package edgar

import (
	"context"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"edgar_export/pkg/models"
)

func manifestWith(reports ...string) string {
	body := "<FilingSummary><MyReports>"
	for i, long := range reports {
		body += fmt.Sprintf("<Report><HtmlFileName>R%d.htm</HtmlFileName><LongName>%s</LongName><ShortName>S%d</ShortName></Report>", i+1, long, i+1)
	}
	return body + "<Report><ShortName>All Reports</ShortName></Report></MyReports></FilingSummary>"
}

func newTestPipeline(stub *registryStub, concurrency int) *Pipeline {
	g := stub.gateway()
	return NewPipeline(
		NewResolver(g, stub.url("/search"), nil),
		NewEnumerator(g, stub.url("/submissions"), nil),
		NewIndexer(g, stub.url("/archives"), nil, nil),
		concurrency,
		nil,
	)
}

func TestPipelineBuild(t *testing.T) {
	stub := newRegistryStub(t)
	stub.handle("/search?keysTyped=F", `{"hits":{"hits":[{"_id":"37996"}]}}`)
	recent := SubmissionBatch{
		AccessionNumber: []string{"0000037996-24-000001", "0000037996-24-000002", "0000037996-24-000003", "0000037996-24-000004", "0000037996-23-000005"},
		Form:            []string{"10-K", "8-K", "10-Q", "10-Q", "10-Q"},
		FilingDate:      []string{"2024-02-06", "2024-01-20", "2023-11-01", "2023-08-01", "2023-05-01"},
		ReportDate:      []string{"2023-12-31", "", "2023-09-30", "2023-06-30", "2023-03-31"},
	}
	stub.handle("/submissions/CIK0000037996.json", indexJSON(t, recent))
	stub.handle("/archives/37996/000003799624000001/FilingSummary.xml", manifestWith("1 - Statement - Income", "2 - Disclosure - Leases"))
	// 000003799624000003 has no manifest.
	stub.handleStatus("/archives/37996/000003799624000004/FilingSummary.xml", http.StatusInternalServerError, "")
	stub.handle("/archives/37996/000003799623000005/FilingSummary.xml", manifestWith("1 - Statement - Balance"))

	bundles, ok := newTestPipeline(stub, 2).Build(context.Background(), "f", models.NoWindow, models.NewFormSet("10-K", "10-Q"))
	require.True(t, ok)
	require.Len(t, bundles, 2)

	assert.Equal(t, "0000037996-24-000001", bundles[0].Metadata.AccessionNumber)
	assert.Equal(t, "10-K", bundles[0].Metadata.Form)
	assert.Len(t, bundles[0].Reports["statement"], 1)
	assert.Len(t, bundles[0].Reports["disclosure"], 1)
	assert.Equal(t, "0000037996-23-000005", bundles[1].Metadata.AccessionNumber)

	assert.Equal(t, 0, stub.count("/archives/37996/000003799624000002/FilingSummary.xml"))
	assert.Equal(t, 1, stub.count("/archives/37996/000003799624000003/FilingSummary.xml"))
}

func TestPipelineDefaultsToPeriodicForms(t *testing.T) {
	stub := newRegistryStub(t)
	stub.handle("/search?keysTyped=F", `{"hits":{"hits":[{"_id":"37996"}]}}`)
	stub.handle("/submissions/CIK0000037996.json", indexJSON(t, SubmissionBatch{
		AccessionNumber: []string{"0000037996-24-000001", "0000037996-24-000002"},
		Form:            []string{"8-K", "10-Q"},
		FilingDate:      []string{"2024-02-06", "2024-01-20"},
		ReportDate:      []string{"", "2023-12-31"},
	}))
	stub.handle("/archives/37996/000003799624000002/FilingSummary.xml", manifestWith("1 - Statement - Income"))

	bundles, ok := newTestPipeline(stub, 0).Build(context.Background(), "F", models.NoWindow, nil)
	require.True(t, ok)
	require.Len(t, bundles, 1)
	assert.Equal(t, "10-Q", bundles[0].Metadata.Form)
}

func TestPipelineUnresolvedMakesNoFilingCalls(t *testing.T) {
	stub := newRegistryStub(t)
	stub.handle("/search?keysTyped=NOPE", `{"hits":{"hits":[]}}`)

	bundles, ok := newTestPipeline(stub, 4).Build(context.Background(), "nope", models.NoWindow, nil)
	assert.False(t, ok)
	assert.Nil(t, bundles)
	assert.Equal(t, []string{"/search?keysTyped=NOPE"}, stub.requested())
}

func TestPipelineWindowNeverReturnsOlderFilings(t *testing.T) {
	stub := newRegistryStub(t)
	stub.handle("/search?keysTyped=F", `{"hits":{"hits":[{"_id":"37996"}]}}`)
	stub.handle("/submissions/CIK0000037996.json", indexJSON(t, SubmissionBatch{
		AccessionNumber: []string{"0000037996-24-000001", "0000037996-22-000002"},
		Form:            []string{"10-K", "10-K"},
		FilingDate:      []string{"2024-02-06", "2022-02-06"},
		ReportDate:      []string{"2023-12-31", "2021-12-31"},
	}, "CIK0000037996-submissions-001.json"))
	stub.handle("/archives/37996/000003799624000001/FilingSummary.xml", manifestWith("1 - Statement - Income"))

	window := mustWindow(t, "2023-01-01")
	bundles, ok := newTestPipeline(stub, 4).Build(context.Background(), "F", window, nil)
	require.True(t, ok)
	require.Len(t, bundles, 1)
	assert.Equal(t, "0000037996-24-000001", bundles[0].Metadata.AccessionNumber)
	assert.Equal(t, 0, stub.count("/submissions/CIK0000037996-submissions-001.json"))
	assert.Equal(t, 0, stub.count("/archives/37996/000003799622000002/FilingSummary.xml"))
}
