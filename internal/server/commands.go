// ABOUTME: Command dispatch from protocol methods to engine operations
// ABOUTME: Maps engine errors onto protocol result codes
package server

import (
	"errors"
	"fmt"

	"github.com/metrodrone/metrodrone-go/internal/protocol"
	"github.com/metrodrone/metrodrone-go/pkg/audio/output"
	"github.com/metrodrone/metrodrone-go/pkg/pattern"
)

var (
	errInvalidArguments = errors.New("invalid arguments")
	errUnknownMethod    = errors.New("unknown method")
)

func missing(arg string) error {
	return fmt.Errorf("%w: %s is required", errInvalidArguments, arg)
}

// dispatch runs one command against the engine
func (s *Server) dispatch(cmd protocol.Command) protocol.Result {
	bpm, err := s.invoke(cmd.Method, cmd.Args)
	if err != nil {
		return protocol.Result{ID: cmd.ID, Code: codeFor(err), Error: err.Error()}
	}
	return protocol.Result{ID: cmd.ID, OK: true, BPM: bpm}
}

func (s *Server) invoke(method string, args protocol.Args) (*int, error) {
	e := s.engine

	switch method {
	case protocol.MethodMetronomeStart:
		return nil, e.StartMetronome()
	case protocol.MethodMetronomeStop:
		e.StopMetronome()
	case protocol.MethodMetronomeTap:
		if bpm, ok := e.Tap(); ok {
			return &bpm, nil
		}
	case protocol.MethodSetBPM:
		if args.BPM == nil {
			return nil, missing("bpm")
		}
		e.SetTempo(*args.BPM)
		bpm := e.Snapshot().Tempo
		return &bpm, nil
	case protocol.MethodSetSubdivision:
		if args.Subdivision == nil {
			return nil, missing("subdivision")
		}
		return nil, e.SetSubdivision(*args.Subdivision)
	case protocol.MethodSetNumerator:
		if args.TimeSignatureNumerator == nil {
			return nil, missing("timeSignatureNumerator")
		}
		return nil, e.SetTimeSignatureNumerator(*args.TimeSignatureNumerator)
	case protocol.MethodSetDenominator:
		if args.TimeSignatureDenominator == nil {
			return nil, missing("timeSignatureDenominator")
		}
		return nil, e.SetTimeSignatureDenominator(*args.TimeSignatureDenominator)
	case protocol.MethodSetNextTickType:
		if args.TickIndex == nil {
			return nil, missing("tickIndex")
		}
		return nil, e.SetNextTickType(*args.TickIndex)
	case protocol.MethodSetTickTypes:
		if args.TickTypes == nil {
			return nil, missing("tickTypes")
		}
		return nil, e.SetTickTypeNames(args.TickTypes)
	case protocol.MethodSetDroneDurationRatio:
		if args.DroneDurationRatio == nil {
			return nil, missing("droneDurationRatio")
		}
		e.SetDurationRatio(*args.DroneDurationRatio)
	case protocol.MethodConfigure:
		return nil, e.Configure(args.Settings)
	case protocol.MethodDroneStart:
		return nil, e.StartDrone()
	case protocol.MethodDroneStop:
		e.StopDrone()
	case protocol.MethodSetPulsing:
		if args.IsPulsing == nil {
			return nil, missing("isPulsing")
		}
		e.SetPulsing(*args.IsPulsing)
	case protocol.MethodSetNote:
		if args.Note == nil {
			return nil, missing("note")
		}
		octave := e.Snapshot().Voice.Octave
		if args.Octave != nil {
			octave = *args.Octave
		}
		return nil, e.SetNote(*args.Note, octave)
	case protocol.MethodSetTuningStandard:
		if args.TuningStandard == nil {
			return nil, missing("tuningStandard")
		}
		return nil, e.SetTuning(*args.TuningStandard)
	case protocol.MethodSetSoundType:
		if args.SoundType == nil {
			return nil, missing("soundType")
		}
		return nil, e.SetWaveform(*args.SoundType)
	default:
		return nil, fmt.Errorf("%w: %s", errUnknownMethod, method)
	}
	return nil, nil
}

// codeFor maps an engine or dispatch error to a protocol code
func codeFor(err error) string {
	var cfgErr *pattern.ConfigurationError
	switch {
	case errors.As(err, &cfgErr):
		return protocol.CodeConfigurationError
	case errors.Is(err, output.ErrSinkUnavailable):
		return protocol.CodeSinkUnavailable
	case errors.Is(err, errUnknownMethod):
		return protocol.CodeUnknownMethod
	default:
		return protocol.CodeInvalidArguments
	}
}
