package melody

import (
	"fmt"
	"strings"

	"github.com/jsphweid/harptab/model"
	"github.com/jsphweid/harptab/pitch"
	"github.com/jsphweid/harptab/util"
)

const DefaultKey = "C"

// circle of fifths from 7 flats to 7 sharps
var majorKeys = [15]string{"Cb", "Gb", "Db", "Ab", "Eb", "Bb", "F", "C", "G", "D", "A", "E", "B", "F#", "C#"}
var minorKeys = [15]string{"Ab", "Eb", "Bb", "F", "C", "G", "D", "A", "E", "B", "F#", "C#", "G#", "D#", "A#"}

// keyName names a key signature, e.g. {1 major} -> "G", {0 minor} -> "Am".
func keyName(k *model.KeySignature) string {
	if k == nil || k.Fifths < -7 || k.Fifths > 7 {
		return ""
	}
	if strings.EqualFold(k.Mode, "minor") {
		return minorKeys[k.Fifths+7] + "m"
	}
	return majorKeys[k.Fifths+7]
}

// DetectKey is a placeholder for tonality detection and always returns C.
func DetectKey(m *model.Melody) string {
	return DefaultKey
}

// Range returns the lowest and highest notes of m.
func Range(m *model.Melody) (low, high pitch.Pitch, ok bool) {
	for _, e := range m.Events {
		if e.IsRest() {
			continue
		}
		if !ok || e.Midi < low.Midi() {
			low = e.Pitch
		}
		if !ok || e.Midi > high.Midi() {
			high = e.Pitch
		}
		ok = true
	}
	return low, high, ok
}

// TransposeKey returns the key name reached by shifting key by semitones,
// keeping a trailing "m" for minor keys. Unknown keys give "Unknown".
func TransposeKey(key string, semitones int) string {
	root, suffix := key, ""
	if strings.HasSuffix(key, "m") {
		root, suffix = strings.TrimSuffix(key, "m"), "m"
	}
	class, err := pitch.ClassOf(root)
	if err != nil {
		return "Unknown"
	}
	return pitch.ClassName(class+semitones) + suffix
}

// Describe renders a shift in tones, e.g. 3 -> "1.5 tones up".
func Describe(semitones int) string {
	if semitones == 0 {
		return "no transposition"
	}
	direction := "up"
	if semitones < 0 {
		direction = "down"
	}
	semitones = util.Abs(semitones)
	unit := "tones"
	if semitones == 2 {
		unit = "tone"
	}
	if semitones%2 == 0 {
		return fmt.Sprintf("%d %s %s", semitones/2, unit, direction)
	}
	return fmt.Sprintf("%.1f %s %s", float64(semitones)/2, unit, direction)
}
