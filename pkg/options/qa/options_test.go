package qa

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNewOptionsDefaults(t *testing.T) {
	opts := NewOptions()

	assert.Equal(t, []string{"youtube", "website", "pdf", "pptx"}, opts.Sources)
	assert.Equal(t, BackendMilvus, opts.Backend)
	assert.Equal(t, 4, opts.TopK)
	assert.Equal(t, 2000, opts.PassageLimit)
	assert.Contains(t, opts.PromptTemplate, "{{context}}")
	assert.Contains(t, opts.PromptTemplate, "{{question}}")
	assert.False(t, opts.AllowUntrustedSnapshots)
}

func TestValidate(t *testing.T) {
	opts := NewOptions()
	assert.Empty(t, opts.Validate())

	opts.Sources = nil
	assert.NotEmpty(t, opts.Validate())

	opts = NewOptions()
	opts.Sources = []string{"pdf", "pdf"}
	assert.NotEmpty(t, opts.Validate(), "重复来源应校验失败")

	opts = NewOptions()
	opts.Backend = "faiss"
	assert.NotEmpty(t, opts.Validate(), "未知后端应校验失败")

	opts = NewOptions()
	opts.TopK = 0
	assert.NotEmpty(t, opts.Validate())

	opts = NewOptions()
	opts.PassageLimit = -1
	assert.NotEmpty(t, opts.Validate())
}

func TestLocation(t *testing.T) {
	opts := NewOptions()

	assert.Equal(t, "edunav_youtube", opts.Location("youtube"))

	opts.Locations = map[string]string{"youtube": "custom_collection"}
	assert.Equal(t, "custom_collection", opts.Location("youtube"))

	opts = NewOptions()
	opts.Backend = BackendSnapshot
	opts.SnapshotDir = "/var/lib/edunav"
	assert.Equal(t, "/var/lib/edunav/pdf.snapshot", opts.Location("pdf"))
}
