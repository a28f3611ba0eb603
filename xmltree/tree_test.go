package xmltree

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const listBuckets = `<?xml version="1.0" encoding="UTF-8"?>
<ListAllMyBucketsResult>
  <Owner>
    <ID>ut_test_put_bucket</ID>
    <DisplayName>ut_test_put_bucket</DisplayName>
  </Owner>
  <Buckets>
    <Bucket>
      <Location>oss-cn-hangzhou-a</Location>
      <Name>xz02tphky6fjfiuc0</Name>
      <CreationDate>2014-05-15T11:18:32.000Z</CreationDate>
    </Bucket>
    <Bucket>
      <Location>oss-cn-hangzhou-a</Location>
      <Name>xz02tphky6fjfiuc1</Name>
      <CreationDate>2014-05-15T11:18:32.000Z</CreationDate>
    </Bucket>
  </Buckets>
</ListAllMyBucketsResult>`

func TestDecode_RootKey(t *testing.T) {
	tree, err := Decode(strings.NewReader(listBuckets))
	require.NoError(t, err)

	assert.Equal(t, "ListAllMyBucketsResult", tree.Root())

	root, ok := tree.Get("ListAllMyBucketsResult")
	require.True(t, ok)

	m, ok := root.(map[string]any)
	require.True(t, ok)
	assert.Contains(t, m, "Owner")
	assert.Contains(t, m, "Buckets")
}

func TestDecode_RepeatedElements(t *testing.T) {
	tree, err := Decode(strings.NewReader(listBuckets))
	require.NoError(t, err)

	buckets := tree.Maps("ListAllMyBucketsResult", "Buckets", "Bucket")
	require.Len(t, buckets, 2)
	assert.Equal(t, "xz02tphky6fjfiuc0", buckets[0].String("Name"))
	assert.Equal(t, "xz02tphky6fjfiuc1", buckets[1].String("Name"))
}

func TestList_SingleElement(t *testing.T) {
	tree, err := Parse([]byte(`<DeleteResult><Deleted><Key>a</Key></Deleted></DeleteResult>`))
	require.NoError(t, err)

	deleted := tree.List("DeleteResult", "Deleted")
	require.Len(t, deleted, 1)
	assert.Equal(t, map[string]any{"Key": "a"}, deleted[0])
}

func TestList_Missing(t *testing.T) {
	tree, err := Parse([]byte(`<DeleteResult></DeleteResult>`))
	require.NoError(t, err)

	assert.Nil(t, tree.List("DeleteResult", "Deleted"))
	assert.Equal(t, "", tree.String("DeleteResult"))
}

func TestString(t *testing.T) {
	tree, err := Parse([]byte(`<Error><Code>AccessDenied</Code><Message> Request has expired. </Message></Error>`))
	require.NoError(t, err)

	assert.Equal(t, "AccessDenied", tree.String("Error", "Code"))
	assert.Equal(t, "Request has expired.", tree.String("Error", "Message"))
	assert.Equal(t, "", tree.String("Error", "Missing"))
	assert.Equal(t, "", tree.String("Error"))
}

func TestParse_Empty(t *testing.T) {
	tree, err := Parse([]byte("  \n"))
	require.NoError(t, err)
	assert.Nil(t, tree)
}

func TestDecode_Errors(t *testing.T) {
	tests := []struct {
		name  string
		input string
	}{
		{name: "no root", input: `<?xml version="1.0"?>`},
		{name: "unterminated", input: `<ListBucketResult><Name>b</Name>`},
		{name: "mismatched", input: `<a><b></a>`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Decode(strings.NewReader(tt.input))
			assert.Error(t, err)
		})
	}
}
