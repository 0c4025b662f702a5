package records

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFieldValues_MultiValueAccumulates(t *testing.T) {
	fv := newFieldValues(MultiValue)
	fv.Add("Fever")
	fv.Add("Cough")
	fv.Add("Fever") // duplicate is a no-op

	assert.Equal(t, 2, fv.Len())
	assert.True(t, fv.Has("Fever"))
	assert.Equal(t, []string{"Cough", "Fever"}, fv.Values())
}

func TestFieldValues_SingleValueReplaces(t *testing.T) {
	fv := newFieldValues(SingleValue)
	fv.Add("Unverified")
	fv.Add("Complete")

	assert.Equal(t, 1, fv.Len())
	assert.Equal(t, []string{"Complete"}, fv.Values())
}

func TestFieldValues_MarshalSortedArray(t *testing.T) {
	fv := newFieldValues(MultiValue)
	fv.Add("b")
	fv.Add("a")

	data, err := json.Marshal(fv)
	require.NoError(t, err)
	assert.JSONEq(t, `["a","b"]`, string(data))
}

func TestTreeInsert_CompletionFieldIsSingleValue(t *testing.T) {
	meta := ResolveMetadata(testDictionary(), testMappings())
	tree := make(RecordsTree)

	tuple := Tuple{
		Event: "baseline_arm_1", Form: "visit", Subject: "S1",
		Instance: "1", Field: "visit_complete",
	}
	tree.insert(tuple, "Unverified", meta)
	tree.insert(tuple, "Complete", meta)

	fields := tree.Get("baseline_arm_1", "visit", "S1", "1")
	require.NotNil(t, fields)
	assert.Equal(t, []string{"Complete"}, fields["visit_complete"].Values())
}

func TestTreeInsert_OrdinaryFieldAccumulates(t *testing.T) {
	meta := ResolveMetadata(testDictionary(), testMappings())
	tree := make(RecordsTree)

	tuple := Tuple{
		Event: "baseline_arm_1", Form: "visit", Subject: "S1",
		Instance: "1", Field: "sym",
	}
	tree.insert(tuple, "Fever", meta)
	tree.insert(tuple, "Cough, dry or wet", meta)

	fields := tree.Get("baseline_arm_1", "visit", "S1", "1")
	assert.Equal(t, []string{"Cough, dry or wet", "Fever"}, fields["sym"].Values())
}

func TestTreeGet_AbsentLevels(t *testing.T) {
	tree := make(RecordsTree)
	assert.Nil(t, tree.Get("e", "f", "s", "1"))
}

// ==========================
// Backfill Tests
// ==========================

func TestBackfill_SynthesizesMissingSubjects(t *testing.T) {
	meta := ResolveMetadata(testDictionary(), testMappings())
	tree := make(RecordsTree)

	tree.insert(Tuple{
		Event: "baseline_arm_1", Form: "visit", Subject: "S1",
		Instance: "1", Field: "notes",
	}, "ok", meta)

	tree.Backfill(meta, []string{"S1", "S2"})

	// S2 never appeared but gets a default instance in every mapped pair
	fields := tree.Get("baseline_arm_1", "visit", "S2", "1")
	require.NotNil(t, fields)
	assert.Equal(t, []string{"Incomplete"}, fields["visit_complete"].Values())
	assert.Equal(t, []string{""}, fields["notes"].Values())
	assert.Equal(t, []string{""}, fields["sym"].Values())

	require.NotNil(t, tree.Get("followup_arm_1", "visit", "S1", "1"))
	require.NotNil(t, tree.Get("baseline_arm_1", "demographics", "S2", "1"))
}

func TestBackfill_FillsEveryDeclaredField(t *testing.T) {
	meta := ResolveMetadata(testDictionary(), testMappings())
	tree := make(RecordsTree)

	tree.insert(Tuple{
		Event: "baseline_arm_1", Form: "visit", Subject: "S1",
		Instance: "2", Field: "sym",
	}, "Fever", meta)

	tree.Backfill(meta, []string{"S1"})

	// the existing instance is completed, not replaced
	fields := tree.Get("baseline_arm_1", "visit", "S1", "2")
	require.NotNil(t, fields)
	assert.Equal(t, []string{"Fever"}, fields["sym"].Values())
	assert.Equal(t, []string{""}, fields["notes"].Values())
	assert.Equal(t, []string{"Incomplete"}, fields["visit_complete"].Values())

	// an instance already present means no extra default instance
	_, hasDefault := tree["baseline_arm_1"]["visit"]["S1"]["1"]
	assert.False(t, hasDefault)
}

func TestBackfill_PreservesExistingCompletion(t *testing.T) {
	meta := ResolveMetadata(testDictionary(), testMappings())
	tree := make(RecordsTree)

	tree.insert(Tuple{
		Event: "baseline_arm_1", Form: "visit", Subject: "S1",
		Instance: "1", Field: "visit_complete",
	}, "Complete", meta)

	tree.Backfill(meta, []string{"S1"})

	fields := tree.Get("baseline_arm_1", "visit", "S1", "1")
	assert.Equal(t, []string{"Complete"}, fields["visit_complete"].Values())
}

func TestBackfill_Idempotent(t *testing.T) {
	meta := ResolveMetadata(testDictionary(), testMappings())
	tree := make(RecordsTree)

	tree.insert(Tuple{
		Event: "baseline_arm_1", Form: "visit", Subject: "S1",
		Instance: "1", Field: "sym",
	}, "Fever", meta)

	tree.Backfill(meta, []string{"S1", "S2"})
	first, err := json.Marshal(tree)
	require.NoError(t, err)

	tree.Backfill(meta, []string{"S1", "S2"})
	second, err := json.Marshal(tree)
	require.NoError(t, err)

	assert.JSONEq(t, string(first), string(second))
}
