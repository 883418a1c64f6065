package config

type Voice struct{}

var _ VoiceConfig = Voice{}

// GetSpeechCommand names an external speech-to-text program. It is run with the
// locale tag as its only argument and prints one transcript per line.
func (Voice) GetSpeechCommand() string {
	return GetEnv("SPEECH_COMMAND", "")
}
