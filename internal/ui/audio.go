package ui

import (
	"math"

	"github.com/hajimehoshi/ebiten/v2/audio"
)

// SoundType represents different sound effects.
type SoundType int

const (
	SoundMove SoundType = iota
	SoundCapture
	SoundCheck
	SoundCastle
	SoundSplit
	SoundCollapse
	SoundInvalid
	SoundGameEnd
)

const sampleRate = 44100

// AudioManager plays procedurally generated sound effects.
type AudioManager struct {
	context *audio.Context
	sounds  map[SoundType][]byte
	enabled bool
	volume  float64
}

// NewAudioManager creates a new audio manager. Only one may exist per
// process.
func NewAudioManager() *AudioManager {
	am := &AudioManager{
		context: audio.NewContext(sampleRate),
		sounds:  make(map[SoundType][]byte),
		enabled: true,
		volume:  0.5,
	}
	am.generateSounds()
	return am
}

func (am *AudioManager) generateSounds() {
	am.sounds[SoundMove] = click(440, 0.08, 0.3)
	am.sounds[SoundCapture] = click(330, 0.12, 0.5)
	am.sounds[SoundCheck] = tone(880, 0.15, 0.4)
	am.sounds[SoundCastle] = concat(click(400, 0.06, 0.3), silence(0.05), click(440, 0.06, 0.24))
	// A split rises, a collapse falls.
	am.sounds[SoundSplit] = sweep(330, 990, 0.22, 0.3)
	am.sounds[SoundCollapse] = sweep(990, 220, 0.18, 0.35)
	am.sounds[SoundInvalid] = buzz(150, 0.1, 0.3)
	am.sounds[SoundGameEnd] = chord([]float64{261.63, 329.63, 392.00}, 0.4, 0.5)
}

// synth renders duration seconds of wave(t) shaped by env(progress) as
// 16-bit stereo PCM.
func synth(duration, amplitude float64, wave func(t float64) float64, env func(p float64) float64) []byte {
	samples := int(sampleRate * duration)
	data := make([]byte, samples*4)
	for i := 0; i < samples; i++ {
		t := float64(i) / sampleRate
		v := wave(t) * env(t/duration) * amplitude
		if v > 1 {
			v = 1
		} else if v < -1 {
			v = -1
		}
		s := int16(v * 32767)
		data[i*4] = byte(s)
		data[i*4+1] = byte(s >> 8)
		data[i*4+2] = byte(s)
		data[i*4+3] = byte(s >> 8)
	}
	return data
}

func attackDecay(p float64) float64 {
	if p < 0.1 {
		return p / 0.1
	}
	return 1.0 - (p-0.1)/0.9
}

// click is a short percussive knock, wood on wood.
func click(freq, duration, amplitude float64) []byte {
	return synth(duration, amplitude, func(t float64) float64 {
		i := t * sampleRate
		noise := (math.Sin(i*0.3) + math.Sin(i*0.7)) * 0.3
		return math.Sin(2*math.Pi*freq*t) + noise
	}, func(p float64) float64 {
		return math.Exp(-p * duration * 30)
	})
}

func tone(freq, duration, amplitude float64) []byte {
	return synth(duration, amplitude, func(t float64) float64 {
		return math.Sin(2 * math.Pi * freq * t)
	}, attackDecay)
}

// sweep glides linearly from one frequency to another.
func sweep(from, to, duration, amplitude float64) []byte {
	return synth(duration, amplitude, func(t float64) float64 {
		// Phase is the integral of the instantaneous frequency.
		k := (to - from) / duration
		return math.Sin(2 * math.Pi * (from*t + k*t*t/2))
	}, attackDecay)
}

func buzz(freq, duration, amplitude float64) []byte {
	return synth(duration, amplitude*0.5, func(t float64) float64 {
		return math.Sin(2*math.Pi*freq*t) + 0.3*math.Sin(4*math.Pi*freq*t)
	}, func(p float64) float64 {
		return 1 - p
	})
}

func chord(freqs []float64, duration, amplitude float64) []byte {
	return synth(duration, amplitude, func(t float64) float64 {
		sum := 0.0
		for _, f := range freqs {
			sum += math.Sin(2 * math.Pi * f * t)
		}
		return sum / float64(len(freqs))
	}, func(p float64) float64 {
		switch {
		case p < 0.1:
			return p / 0.1
		case p > 0.7:
			return (1.0 - p) / 0.3
		}
		return 1.0
	})
}

func silence(duration float64) []byte {
	return make([]byte, int(sampleRate*duration)*4)
}

func concat(parts ...[]byte) []byte {
	var out []byte
	for _, p := range parts {
		out = append(out, p...)
	}
	return out
}

// Play plays a sound effect.
func (am *AudioManager) Play(sound SoundType) {
	if !am.enabled {
		return
	}
	data, ok := am.sounds[sound]
	if !ok {
		return
	}
	// A fresh player per call lets sounds overlap.
	player := am.context.NewPlayerFromBytes(data)
	player.SetVolume(am.volume)
	player.Play()
}

// SetEnabled enables or disables audio.
func (am *AudioManager) SetEnabled(enabled bool) {
	am.enabled = enabled
}

// IsEnabled returns whether audio is enabled.
func (am *AudioManager) IsEnabled() bool {
	return am.enabled
}
