package render

import (
	"errors"
	"fmt"
	"math"

	"github.com/local/coursebuilder/api/elements"
)

const (
	// GateInterval is the playback time between comprehension checks, in seconds.
	GateInterval = 300.0
	// PassThreshold is the share of correct answers needed to continue.
	PassThreshold = 0.5
)

var (
	ErrGateTransition = errors.New("transition not allowed")
	ErrStaleTrigger   = errors.New("questions arrived for an outdated trigger")
	ErrUnanswered     = errors.New("every question must be answered before submitting")
)

type GateState string

const (
	GatePlaying GateState = "playing"
	GateLoading GateState = "loading"
	GateQuiz    GateState = "quiz"
	GatePass    GateState = "pass"
	GateFail    GateState = "fail"
)

type gateEvent string

const (
	evTrigger  gateEvent = "trigger"
	evReady    gateEvent = "ready"
	evPass     gateEvent = "pass"
	evFail     gateEvent = "fail"
	evContinue gateEvent = "continue"
	evRestart  gateEvent = "restart"
)

// gateTransitions is the complete state table; anything missing is refused.
var gateTransitions = map[GateState]map[gateEvent]GateState{
	GatePlaying: {evTrigger: GateLoading},
	GateLoading: {evReady: GateQuiz},
	GateQuiz:    {evPass: GatePass, evFail: GateFail},
	GatePass:    {evContinue: GatePlaying},
	GateFail:    {evRestart: GatePlaying},
}

// Trigger identifies one pause of the video. Round grows with every trigger,
// so late questions for an earlier pause are recognisable.
type Trigger struct {
	Round    int     `json:"round"`
	Boundary float64 `json:"boundary"`
	At       float64 `json:"at"`
}

// Gate pauses a directly played video at every interval boundary until the
// learner passes a short quiz. Each boundary fires at most once per
// playthrough; only Restart after a failed quiz re-arms them.
type Gate struct {
	state     GateState
	interval  float64
	triggered map[int]bool
	current   Trigger
	attempt   *QuizAttempt
	score     Score
}

func NewGate(interval float64) *Gate {
	if interval <= 0 {
		interval = GateInterval
	}
	return &Gate{state: GatePlaying, interval: interval, triggered: make(map[int]bool)}
}

func (g *Gate) State() GateState { return g.state }

// CanPlay reports whether playback may run. It is false from the moment a
// boundary fires until the learner continues or restarts.
func (g *Gate) CanPlay() bool { return g.state == GatePlaying }

func (g *Gate) fire(ev gateEvent) error {
	next, ok := gateTransitions[g.state][ev]
	if !ok {
		return fmt.Errorf("%w: %s in state %s", ErrGateTransition, ev, g.state)
	}
	g.state = next
	return nil
}

// Tick reports the playback position. When it lies past a boundary that has
// not fired yet, the gate moves to loading and returns the trigger; the
// caller pauses playback and starts generating questions.
func (g *Gate) Tick(position float64) (Trigger, bool) {
	if g.state != GatePlaying || position <= 0 {
		return Trigger{}, false
	}
	k := int(math.Floor(position / g.interval))
	if k < 1 || g.triggered[k] {
		return Trigger{}, false
	}
	if err := g.fire(evTrigger); err != nil {
		return Trigger{}, false
	}
	g.triggered[k] = true
	g.current = Trigger{Round: g.current.Round + 1, Boundary: float64(k) * g.interval, At: position}
	return g.current, true
}

// Ready hands over the generated questions for t.
func (g *Gate) Ready(t Trigger, questions []elements.Question) error {
	if g.state == GateLoading && t.Round != g.current.Round {
		return ErrStaleTrigger
	}
	if len(questions) == 0 {
		questions = []elements.Question{elements.DefaultQuestion("1")}
	}
	if err := g.fire(evReady); err != nil {
		return err
	}
	g.attempt = NewQuizAttempt(questions)
	return nil
}

func (g *Gate) Answer(q, o int) error {
	if g.state != GateQuiz {
		return fmt.Errorf("%w: answer in state %s", ErrGateTransition, g.state)
	}
	return g.attempt.Select(q, o)
}

// Submit scores the quiz and moves to pass or fail.
func (g *Gate) Submit() (Score, error) {
	if g.state != GateQuiz {
		return Score{}, fmt.Errorf("%w: submit in state %s", ErrGateTransition, g.state)
	}
	if !g.attempt.Complete() {
		return Score{}, ErrUnanswered
	}
	score := g.attempt.Submit()
	ev := evFail
	if score.Ratio() >= PassThreshold {
		ev = evPass
	}
	if err := g.fire(ev); err != nil {
		return Score{}, err
	}
	g.score = score
	return score, nil
}

// Continue resumes after a pass and returns the position to play from.
// Fired boundaries stay fired.
func (g *Gate) Continue() (float64, error) {
	if err := g.fire(evContinue); err != nil {
		return 0, err
	}
	g.attempt = nil
	return g.current.At, nil
}

// Restart follows a failed quiz: every boundary re-arms and playback starts
// again from zero.
func (g *Gate) Restart() (float64, error) {
	if err := g.fire(evRestart); err != nil {
		return 0, err
	}
	g.attempt = nil
	g.triggered = make(map[int]bool)
	return 0, nil
}

// Triggered lists the boundaries that have fired, in seconds, ascending.
func (g *Gate) Triggered() []float64 {
	var out []float64
	for k := 1; len(out) < len(g.triggered); k++ {
		if g.triggered[k] {
			out = append(out, float64(k)*g.interval)
		}
	}
	return out
}

type GateView struct {
	State     GateState `json:"state"`
	CanPlay   bool      `json:"canPlay"`
	Trigger   *Trigger  `json:"trigger,omitempty"`
	Quiz      *QuizView `json:"quiz,omitempty"`
	Score     *Score    `json:"score,omitempty"`
	Triggered []float64 `json:"triggered"`
}

func (g *Gate) View() GateView {
	v := GateView{State: g.state, CanPlay: g.CanPlay(), Triggered: g.Triggered()}
	if v.Triggered == nil {
		v.Triggered = []float64{}
	}
	if g.state != GatePlaying {
		t := g.current
		v.Trigger = &t
	}
	if g.attempt != nil {
		q := g.attempt.View()
		v.Quiz = &q
	}
	if g.state == GatePass || g.state == GateFail {
		s := g.score
		v.Score = &s
	}
	return v
}
