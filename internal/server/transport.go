package server

import (
	"bufio"
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/wricardo/mcp/git-summarizer/internal/protocol"
)

// Serve reads one request per line from r and writes each response as one
// line to w, flushing after every write. Requests are handled strictly in
// order. Malformed lines are logged and skipped.
//
// Serve returns nil at end of input. It returns an error when reading or
// writing fails, when ctx is done before the next line, or when a request
// fails with protocol.ErrInvalidParams.
func (s *Server) Serve(ctx context.Context, r io.Reader, w io.Writer) error {
	log := s.logger.With(zap.String("session", uuid.NewString()))
	log.Info("serving on stdio", zap.String("server", Name), zap.String("version", Version))

	br := bufio.NewReader(r)
	bw := bufio.NewWriter(w)

	for {
		if err := ctx.Err(); err != nil {
			return err
		}

		line, readErr := br.ReadBytes('\n')
		if len(line) > 0 {
			if err := s.serveLine(ctx, log, line, bw); err != nil {
				return err
			}
		}

		if readErr != nil {
			if errors.Is(readErr, io.EOF) {
				log.Info("input closed")
				return nil
			}
			return fmt.Errorf("read request: %w", readErr)
		}
	}
}

func (s *Server) serveLine(ctx context.Context, log *zap.Logger, line []byte, w *bufio.Writer) error {
	line = bytes.TrimSpace(line)
	if len(line) == 0 {
		return nil
	}
	log.Debug("received request", zap.ByteString("line", line))

	req, err := protocol.Decode(line)
	if err != nil {
		log.Warn("dropping malformed request", zap.Error(err))
		return nil
	}

	resp, err := s.Handle(ctx, req)
	if err != nil {
		log.Error("aborting on request", zap.String("method", req.Method), zap.Error(err))
		return err
	}
	if resp == nil {
		return nil
	}

	out, err := protocol.Encode(resp)
	if err != nil {
		return err
	}
	if _, err := w.Write(out); err != nil {
		return fmt.Errorf("write response: %w", err)
	}
	if err := w.Flush(); err != nil {
		return fmt.Errorf("write response: %w", err)
	}
	log.Debug("sent response", zap.ByteString("line", bytes.TrimRight(out, "\n")))

	return nil
}
