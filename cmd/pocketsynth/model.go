package main

import (
	"fmt"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/justyntemme/pocketsynth/pkg/dsp/analysis"
	"github.com/justyntemme/pocketsynth/pkg/framework/debug"
	"github.com/justyntemme/pocketsynth/pkg/framework/param"
	"github.com/justyntemme/pocketsynth/pkg/synth"
)

const (
	// Terminals report key presses only, so a note is released after it
	// has not been repeated for holdTime.
	holdTime  = 400 * time.Millisecond
	frameTime = 50 * time.Millisecond
	meterBar  = 32
)

// pianoKeys maps the home rows to semitones above the base note
var pianoKeys = map[string]uint8{
	"a": 0, "w": 1, "s": 2, "e": 3, "d": 4, "f": 5, "t": 6, "g": 7,
	"y": 8, "h": 9, "u": 10, "j": 11, "k": 12, "o": 13, "l": 14,
}

// oscRows are the per-oscillator parameters shown in the view
var oscRows = []string{
	synth.ParamActive, synth.ParamWaveform, synth.ParamOctave, synth.ParamSemitone,
	synth.ParamFine, synth.ParamAttack, synth.ParamDecay, synth.ParamSustain,
	synth.ParamRelease, synth.ParamUnisonVoices, synth.ParamUnisonDetune,
	synth.ParamUnisonMix, synth.ParamLevel,
}

var (
	titleStyle    = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("14"))
	labelStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("8"))
	valueStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("15"))
	selectedStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("11")).Bold(true)
	boxStyle      = lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).Padding(0, 1)
	activeBox     = boxStyle.BorderForeground(lipgloss.Color("11"))
	helpStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("8"))
	meterLow      = lipgloss.NewStyle().Foreground(lipgloss.Color("10"))
	meterMid      = lipgloss.NewStyle().Foreground(lipgloss.Color("11"))
	meterHigh     = lipgloss.NewStyle().Foreground(lipgloss.Color("9"))
)

type frameMsg struct{}

// releaseMsg ends a note unless its key was pressed again since
type releaseMsg struct {
	note       uint8
	generation int
}

type model struct {
	synth  *synth.Synth
	params *synth.Parameters

	baseNote int
	selected int
	held     map[uint8]int
	gen      int
}

func newModel(s *synth.Synth) model {
	return model{
		synth:    s,
		params:   s.Parameters(),
		baseNote: 60,
		held:     make(map[uint8]int),
	}
}

func frameCmd() tea.Cmd {
	return tea.Tick(frameTime, func(time.Time) tea.Msg { return frameMsg{} })
}

func releaseCmd(note uint8, generation int) tea.Cmd {
	return tea.Tick(holdTime, func(time.Time) tea.Msg {
		return releaseMsg{note: note, generation: generation}
	})
}

// Init implements tea.Model
func (m model) Init() tea.Cmd {
	return frameCmd()
}

// Update implements tea.Model
func (m model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case frameMsg:
		return m, frameCmd()

	case releaseMsg:
		if gen, ok := m.held[msg.note]; ok && gen == msg.generation {
			delete(m.held, msg.note)
			m.synth.NoteOff(msg.note)
		}
		return m, nil

	case tea.KeyMsg:
		return m.handleKey(msg)
	}
	return m, nil
}

func (m model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	key := msg.String()

	if offset, ok := pianoKeys[key]; ok {
		return m.press(offset)
	}

	osc := &m.params.Osc[m.selected]
	switch key {
	case "ctrl+c", "esc":
		m.synth.AllNotesOff()
		return m, tea.Quit
	case " ":
		m.synth.AllNotesOff()
		clear(m.held)
	case "z":
		m.baseNote = max(m.baseNote-12, 24)
	case "x":
		m.baseNote = min(m.baseNote+12, 96)
	case "tab":
		m.selected = (m.selected + 1) % synth.NumOscillators
	case "1":
		nudge(osc.Active, 1-2*osc.Active.Value())
	case "[":
		nudge(osc.Waveform, -1)
	case "]":
		nudge(osc.Waveform, 1)
	case "left":
		nudge(osc.Octave, -1)
	case "right":
		nudge(osc.Octave, 1)
	case "-":
		nudge(osc.Voices, -1)
	case "=":
		nudge(osc.Voices, 1)
	case ";":
		nudge(osc.Detune, -0.05)
	case "'":
		nudge(osc.Detune, 0.05)
	case ",":
		nudge(osc.Mix, -0.05)
	case ".":
		nudge(osc.Mix, 0.05)
	case "down":
		nudge(m.params.Gain, -0.05)
	case "up":
		nudge(m.params.Gain, 0.05)
	}
	return m, nil
}

// press starts a note, or keeps an already sounding one alive on key repeat
func (m model) press(offset uint8) (tea.Model, tea.Cmd) {
	note := uint8(min(m.baseNote+int(offset), 127))
	m.gen++
	if _, ok := m.held[note]; !ok {
		if !m.synth.NoteOn(note, 100) {
			debug.Warn("note queue full, dropped %s", param.NoteFormatter(float64(note)))
		}
	}
	m.held[note] = m.gen
	return m, releaseCmd(note, m.gen)
}

func nudge(p *param.Parameter, delta float64) {
	p.SetValue(p.Value() + delta)
}

// View implements tea.Model
func (m model) View() string {
	var b strings.Builder

	b.WriteString(titleStyle.Render("pocketsynth"))
	fmt.Fprintf(&b, "  base %s  gain %s  voices %d/%d  load %.1f%% (peak %.1f%%)\n\n",
		param.NoteFormatter(float64(m.baseNote)), m.params.Gain.String(),
		m.synth.ActiveVoices(), m.params.Voices.Int(),
		m.synth.LoadMeter().Load(), m.synth.LoadMeter().Peak())

	boxes := make([]string, synth.NumOscillators)
	for i := range boxes {
		boxes[i] = m.oscView(i)
	}
	b.WriteString(lipgloss.JoinHorizontal(lipgloss.Top, boxes...))
	b.WriteString("\n\n")

	meter := m.synth.Meter()
	for ch := 0; ch < meter.NumChannels(); ch++ {
		fmt.Fprintf(&b, "%s %s %6.1f dB\n", labelStyle.Render([]string{"L", "R"}[ch%2]),
			meterView(meter.PeakDB(ch)), meter.RMSDB(ch))
	}

	b.WriteString(helpStyle.Render("\nkeys a-l play  z/x octave  tab osc  1 on/off  [ ] wave  ←/→ oct  -/= unison  ; ' detune  , . mix  ↑/↓ gain  space panic  esc quit"))
	return b.String()
}

func (m model) oscView(i int) string {
	r := m.params.Registry()
	var b strings.Builder

	title := fmt.Sprintf("Osc %d", i+1)
	if i == m.selected {
		b.WriteString(selectedStyle.Render(title))
	} else {
		b.WriteString(valueStyle.Render(title))
	}
	for _, name := range oscRows {
		p := r.Get(synth.OscParamID(i, name))
		if p == nil {
			continue
		}
		fmt.Fprintf(&b, "\n%s %s", labelStyle.Render(fmt.Sprintf("%-12s", strings.TrimPrefix(p.Name, title+" "))), valueStyle.Render(p.String()))
	}

	if i == m.selected {
		return activeBox.Render(b.String())
	}
	return boxStyle.Render(b.String())
}

func meterView(db float64) string {
	filled := int(analysis.Normalized(db) * meterBar)
	style := meterLow
	switch {
	case db > -3:
		style = meterHigh
	case db > -12:
		style = meterMid
	}
	return style.Render(strings.Repeat("█", filled)) + labelStyle.Render(strings.Repeat("·", meterBar-filled))
}
