package testsupport

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNextSequence_Increments(t *testing.T) {
	seq1 := NextSequence()
	seq2 := NextSequence()
	seq3 := NextSequence()

	assert.Greater(t, seq2, seq1, "Sequence should increment")
	assert.Greater(t, seq3, seq2, "Sequence should increment")
	assert.Equal(t, seq1+1, seq2, "Should increment by 1")
	assert.Equal(t, seq2+1, seq3, "Should increment by 1")
}

func TestUniqueName_GeneratesUnique(t *testing.T) {
	name1 := UniqueName("applicant")
	name2 := UniqueName("applicant")
	name3 := UniqueName("applicant")

	assert.NotEqual(t, name1, name2, "Names should be unique")
	assert.NotEqual(t, name2, name3, "Names should be unique")
	assert.NotEqual(t, name1, name3, "Names should be unique")
	assert.Contains(t, name1, "applicant_", "Should contain prefix")
}

func TestUniqueEmail_GeneratesValid(t *testing.T) {
	email1 := UniqueEmail("borrower")
	email2 := UniqueEmail("coborrower")

	assert.NotEqual(t, email1, email2, "Emails should be unique")
	assert.Contains(t, email1, "@test.local", "Should contain domain")
	assert.Contains(t, email1, "borrower_", "Should contain prefix")
	assert.Contains(t, email2, "coborrower_", "Should contain prefix")
}

func TestUniqueSSN_UsesTestingRange(t *testing.T) {
	for i := 0; i < 100; i++ {
		ssn := UniqueSSN()
		assert.Len(t, ssn, 11, "Should be SSN-formatted")
		assert.Equal(t, byte('9'), ssn[0], "Should use the reserved 9xx area")
	}
}

func TestUniqueString_GeneratesUUID(t *testing.T) {
	str1 := UniqueString()
	str2 := UniqueString()

	assert.NotEqual(t, str1, str2, "Should generate unique strings")
	assert.Len(t, str1, 36, "Should be valid UUID length")
	assert.Len(t, str2, 36, "Should be valid UUID length")
}

func TestUniqueLoanNumber_GeneratesUnique(t *testing.T) {
	ln1 := UniqueLoanNumber()
	ln2 := UniqueLoanNumber()

	assert.NotEqual(t, ln1, ln2, "Loan numbers should be unique")
	assert.Contains(t, ln1, "LN-", "Should contain prefix")
}

func TestUniqueEventID_GeneratesUnique(t *testing.T) {
	eid1 := UniqueEventID()
	eid2 := UniqueEventID()

	assert.NotEqual(t, eid1, eid2, "Event IDs should be unique")
	assert.Contains(t, eid1, "event_", "Should contain prefix")
}

func TestConcurrentSequenceGeneration(t *testing.T) {
	const goroutines = 100
	const iterations = 100

	seen := sync.Map{}
	var wg sync.WaitGroup
	wg.Add(goroutines)

	for g := 0; g < goroutines; g++ {
		go func() {
			defer wg.Done()
			for i := 0; i < iterations; i++ {
				seq := NextSequence()
				_, loaded := seen.LoadOrStore(seq, true)
				assert.False(t, loaded, "Sequence %d should be unique", seq)
			}
		}()
	}

	wg.Wait()
}

func TestConcurrentUniqueNames(t *testing.T) {
	const goroutines = 50
	const iterations = 50

	seen := sync.Map{}
	var wg sync.WaitGroup
	wg.Add(goroutines)

	for g := 0; g < goroutines; g++ {
		go func() {
			defer wg.Done()
			for i := 0; i < iterations; i++ {
				name := UniqueName("test")
				_, loaded := seen.LoadOrStore(name, true)
				assert.False(t, loaded, "Name %s should be unique", name)
			}
		}()
	}

	wg.Wait()
}
