package models

import "sort"

// Registry is an immutable lookup table of downloadable models, constructed
// once at process start and shared by reference with the Manager.
type Registry struct {
	// byName maps model name to its descriptor.
	byName map[string]ModelDescriptor

	// byLanguage maps language code to model name.
	byLanguage map[string]string
}

// defaultDescriptors lists the direct download links from alphacephei.com.
var defaultDescriptors = []ModelDescriptor{
	{Name: "model-en", Language: "en-us", LanguageName: "English (US)", SourceURL: "https://alphacephei.com/vosk/models/vosk-model-small-en-us-0.15.zip"},
	{Name: "model-de", Language: "de", LanguageName: "German", SourceURL: "https://alphacephei.com/vosk/models/vosk-model-small-de-0.15.zip"},
	{Name: "model-fr", Language: "fr", LanguageName: "French", SourceURL: "https://alphacephei.com/vosk/models/vosk-model-small-fr-0.22.zip"},
	{Name: "model-es", Language: "es", LanguageName: "Spanish", SourceURL: "https://alphacephei.com/vosk/models/vosk-model-small-es-0.42.zip"},
	{Name: "model-pt", Language: "pt", LanguageName: "Portuguese", SourceURL: "https://alphacephei.com/vosk/models/vosk-model-small-pt-0.3.zip"},
	{Name: "model-it", Language: "it", LanguageName: "Italian", SourceURL: "https://alphacephei.com/vosk/models/vosk-model-small-it-0.22.zip"},
	{Name: "model-ru", Language: "ru", LanguageName: "Russian", SourceURL: "https://alphacephei.com/vosk/models/vosk-model-small-ru-0.22.zip"},
	{Name: "model-tr", Language: "tr", LanguageName: "Turkish", SourceURL: "https://alphacephei.com/vosk/models/vosk-model-small-tr-0.3.zip"},
	{Name: "model-vi", Language: "vi", LanguageName: "Vietnamese", SourceURL: "https://alphacephei.com/vosk/models/vosk-model-small-vn-0.3.zip"},
	{Name: "model-hi", Language: "hi", LanguageName: "Hindi", SourceURL: "https://alphacephei.com/vosk/models/vosk-model-small-hi-0.22.zip"},
	{Name: "model-gu", Language: "gu", LanguageName: "Gujarati", SourceURL: "https://alphacephei.com/vosk/models/vosk-model-small-gu-0.42.zip"},
	{Name: "model-te", Language: "te", LanguageName: "Telugu", SourceURL: "https://alphacephei.com/vosk/models/vosk-model-small-te-0.42.zip"},
	{Name: "model-zh", Language: "zh", LanguageName: "Chinese", SourceURL: "https://alphacephei.com/vosk/models/vosk-model-small-cn-0.22.zip"},
	{Name: "model-ja", Language: "ja", LanguageName: "Japanese", SourceURL: "https://alphacephei.com/vosk/models/vosk-model-small-ja-0.22.zip"},
	{Name: "model-ko", Language: "ko", LanguageName: "Korean", SourceURL: "https://alphacephei.com/vosk/models/vosk-model-small-ko-0.22.zip"},
}

// NewRegistry builds a registry from the given descriptors.
// Later descriptors with a duplicate name or language replace earlier ones.
func NewRegistry(descriptors []ModelDescriptor) *Registry {
	r := &Registry{
		byName:     make(map[string]ModelDescriptor, len(descriptors)),
		byLanguage: make(map[string]string, len(descriptors)),
	}
	for _, d := range descriptors {
		r.byName[d.Name] = d
		r.byLanguage[d.Language] = d.Name
	}
	return r
}

// DefaultRegistry returns the built-in registry of small Vosk models.
func DefaultRegistry() *Registry {
	return NewRegistry(defaultDescriptors)
}

// Lookup returns the descriptor for a model name.
// Returns ErrUnknownModel if the name is not registered.
func (r *Registry) Lookup(name string) (ModelDescriptor, error) {
	d, ok := r.byName[name]
	if !ok {
		return ModelDescriptor{}, ErrUnknownModel
	}
	return d, nil
}

// ByLanguage returns the descriptor for a language code.
// Returns ErrUnknownModel if no model is registered for the language.
func (r *Registry) ByLanguage(code string) (ModelDescriptor, error) {
	name, ok := r.byLanguage[code]
	if !ok {
		return ModelDescriptor{}, ErrUnknownModel
	}
	return r.byName[name], nil
}

// All returns every registered descriptor, sorted by model name.
func (r *Registry) All() []ModelDescriptor {
	out := make([]ModelDescriptor, 0, len(r.byName))
	for _, d := range r.byName {
		out = append(out, d)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}
