package sound

import (
	"bytes"
	"errors"
	"io"
	"os"
	"sync"

	"github.com/AlexNa-Holdings/memestake/bus"
	"github.com/hajimehoshi/go-mp3"
	"github.com/hajimehoshi/oto"
	"github.com/rs/zerolog/log"
)

var ErrNoSound = errors.New("no sound file configured")

// Server plays the configured mp3 on "sound" requests and when a
// transaction is mined or fails.
type Server struct {
	bus  *bus.Bus
	file string

	mu      sync.Mutex
	context *oto.Context
	player  *oto.Player
	rate    int
	ch      chan *bus.Message
}

func NewServer(b *bus.Bus, file string) *Server {
	return &Server{bus: b, file: file}
}

func (s *Server) Init() {
	s.ch = s.bus.Subscribe("sound", "tx")
	go s.Loop()
}

func (s *Server) Stop() {
	if s.ch != nil {
		s.bus.Unsubscribe(s.ch)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.player != nil {
		s.player.Close()
		s.player = nil
	}
}

func (s *Server) Loop() {
	for msg := range s.ch {
		if msg.RespondTo != 0 {
			continue // ignore responses
		}
		go s.process(msg)
	}
}

func (s *Server) process(msg *bus.Message) {
	switch msg.Topic {
	case "sound":
		switch msg.Type {
		case "play":
			msg.Respond(nil, s.Play())
		case "list":
			l := []string{}
			if s.file != "" {
				l = append(l, s.file)
			}
			msg.Respond(l, nil)
		default:
			log.Error().Msgf("sound: unknown type: %v", msg.Type)
		}
	case "tx":
		switch msg.Type {
		case "mined", "failed":
			if s.file == "" {
				return
			}
			if err := s.Play(); err != nil {
				log.Error().Err(err).Msg("sound: play")
			}
		}
	}
}

// Play decodes the file and blocks until it has been written to the device.
func (s *Server) Play() error {
	if s.file == "" {
		return ErrNoSound
	}

	data, err := os.ReadFile(s.file)
	if err != nil {
		return err
	}

	d, err := mp3.NewDecoder(bytes.NewReader(data))
	if err != nil {
		log.Error().Msgf("Error decoding sound file: %v", err)
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.context == nil {
		// oto allows one context per process
		c, err := oto.NewContext(d.SampleRate(), 2, 2, 8192)
		if err != nil {
			log.Error().Msgf("Error creating audio context: %v", err)
			return err
		}
		s.context = c
		s.rate = d.SampleRate()
		s.player = c.NewPlayer()
	}
	if d.SampleRate() != s.rate {
		log.Warn().Int("rate", d.SampleRate()).Int("device", s.rate).Msg("sound: sample rate differs from the device")
	}

	if _, err := io.Copy(s.player, d); err != nil {
		log.Error().Msgf("sound: error playing sound: %v", err)
		return err
	}
	return nil
}
