package melody

import "github.com/jsphweid/harptab/model"

func octave(n int) *int {
	return &n
}

func sp(step string, oct, alter int) model.ScorePitch {
	return model.ScorePitch{Step: step, Octave: octave(oct), Alter: alter}
}

func note(step string, oct, alter, duration int, noteType string) model.ScoreEvent {
	p := sp(step, oct, alter)
	return model.ScoreEvent{Type: model.EventNote, Pitch: &p, Duration: duration, NoteType: noteType}
}

func rest(duration int, noteType string) model.ScoreEvent {
	return model.ScoreEvent{Type: model.EventRest, Duration: duration, NoteType: noteType}
}

func chord(duration int, pitches ...model.ScorePitch) model.ScoreEvent {
	return model.ScoreEvent{Type: model.EventChord, Chord: pitches, Duration: duration, NoteType: "quarter"}
}

func createTestScore() *model.Score {
	return &model.Score{
		Title:         "Test Song",
		Composer:      "Test Composer",
		Key:           &model.KeySignature{Fifths: 0, Mode: "major"},
		TimeSignature: "4/4",
		Tempo:         120,
		Parts: []model.Part{{
			ID: "P1",
			Measures: []model.Measure{
				{Number: 1, Notes: []model.ScoreEvent{
					note("C", 4, 0, 4, "quarter"),
					note("E", 4, 0, 4, "quarter"),
					rest(2, "eighth"),
					note("G", 4, 0, 4, "quarter"),
				}},
				{Number: 2, Notes: []model.ScoreEvent{
					note("F", 4, 1, 8, "half"),
				}},
			},
		}},
	}
}
