// Package voice holds the static catalog of synthesis voices.
package voice

// Voice describes one entry in the catalog. Entries are fixed at build time
// and never created or mutated at runtime.
type Voice struct {
	ID       string `json:"id"`
	Name     string `json:"name"`
	Language string `json:"language"`
	Gender   string `json:"gender"`
}

// DefaultID is the voice used when a document submission names none.
const DefaultID = "en-US-GuyNeural"

var catalog = []Voice{
	{ID: "en-US-GuyNeural", Name: "Morgan Freeman-like", Language: "en-US", Gender: "Male"},
	{ID: "en-GB-RyanNeural", Name: "David Attenborough-like", Language: "en-GB", Gender: "Male"},
	{ID: "en-IN-PrabhatNeural", Name: "Amitabh Bachchan-like", Language: "en-IN", Gender: "Male"},
	{ID: "en-GB-SoniaNeural", Name: "British English Female", Language: "en-GB", Gender: "Female"},
	{ID: "hi-IN-SwaraNeural", Name: "Hindi Female", Language: "hi-IN", Gender: "Female"},
	{ID: "hi-IN-MadhurNeural", Name: "Hindi Male", Language: "hi-IN", Gender: "Male"},
	{ID: "de-DE-KatjaNeural", Name: "German Female", Language: "de-DE", Gender: "Female"},
	{ID: "de-DE-ConradNeural", Name: "German Male", Language: "de-DE", Gender: "Male"},
	{ID: "en-US-JennyNeural", Name: "US English Female", Language: "en-US", Gender: "Female"},
	{ID: "en-IN-NeerjaNeural", Name: "Indian English Female", Language: "en-IN", Gender: "Female"},
}

// All returns the catalog entries in their fixed order.
func All() []Voice {
	out := make([]Voice, len(catalog))
	copy(out, catalog)

	return out
}

// Lookup finds a catalog entry by id.
func Lookup(id string) (Voice, bool) {
	for _, v := range catalog {
		if v.ID == id {
			return v, true
		}
	}

	return Voice{}, false
}

// IDs returns the set of valid voice identifiers, in catalog order.
func IDs() []string {
	ids := make([]string, len(catalog))
	for i, v := range catalog {
		ids[i] = v.ID
	}

	return ids
}
