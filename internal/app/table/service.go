package table

import (
	"context"
	"fmt"

	"github.com/YelzhanWeb/cafe/internal/adapter/logger"
	"github.com/YelzhanWeb/cafe/internal/app/session"
	"github.com/YelzhanWeb/cafe/internal/domain"
)

type Service struct {
	logger logger.Logger
}

func NewService(logger logger.Logger) *Service {
	return &Service{logger: logger}
}

// BindFromScan binds the session to the table encoded in a decoded QR
// string. An unreadable code leaves any existing binding in place.
func (s *Service) BindFromScan(ctx context.Context, sess *session.Session, text string) (string, error) {
	var number string
	err := sess.Do(ctx, func(st *session.State) error {
		table := st.Table()
		n, err := table.BindFromScan(text)
		if err != nil {
			return err
		}
		number = n
		return st.SaveTable(ctx, table)
	})
	if err != nil {
		s.logger.Debug("table_scan_rejected", "Scanned code is not a table code", sess.ID(), map[string]interface{}{"code": text})
		return "", err
	}

	s.logger.Info("table_bound", fmt.Sprintf("Session bound to table %s", number), sess.ID(), map[string]interface{}{"table_number": number})
	return number, nil
}

func (s *Service) HasActiveTable(ctx context.Context, sess *session.Session) (bool, error) {
	_, ok, err := s.Number(ctx, sess)
	return ok, err
}

func (s *Service) Number(ctx context.Context, sess *session.Session) (string, bool, error) {
	var (
		n  string
		ok bool
	)
	err := sess.Do(ctx, func(st *session.State) error {
		table := st.Table()
		n, ok = table.Number()
		return nil
	})
	return n, ok, err
}

func (s *Service) Clear(ctx context.Context, sess *session.Session) error {
	return sess.Do(ctx, func(st *session.State) error {
		if err := st.SaveTable(ctx, domain.TableSession{}); err != nil {
			return err
		}
		s.logger.Info("table_cleared", "Table binding cleared", sess.ID(), nil)
		return nil
	})
}
