package screening

import "hash/fnv"

// TestTranscripts are the canned transcripts behind the test endpoint,
// one per scam archetype the default rule set targets plus one benign
// control.
var TestTranscripts = [4]string{
	"This is the IRS calling about your unpaid taxes. You must pay immediately or face arrest.",
	"Hi grandma, it's me. I'm in trouble and need bail money. Please don't tell mom.",
	"Hello, this is your doctor's office calling to confirm your appointment tomorrow.",
	"You've won a million dollars! Just need your bank account to deposit the prize.",
}

// TestTranscript picks a canned transcript for a caller number. The
// choice is stable per number so repeated test calls behave the same.
func TestTranscript(callerNumber string) string {
	h := fnv.New32a()
	_, _ = h.Write([]byte(callerNumber))
	return TestTranscripts[h.Sum32()%uint32(len(TestTranscripts))]
}
