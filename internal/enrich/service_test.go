package enrich_test

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"
	"go.uber.org/mock/gomock"

	"beacon/internal/cache"
	"beacon/internal/enrich"
	"beacon/internal/enrich/mocks"
)

type ServiceSuite struct {
	suite.Suite
	ctrl *gomock.Controller
	gen  *mocks.MockTextGenerator
	svc  *enrich.Service
}

func TestServiceSuite(t *testing.T) {
	suite.Run(t, new(ServiceSuite))
}

func (s *ServiceSuite) SetupTest() {
	s.ctrl = gomock.NewController(s.T())
	s.gen = mocks.NewMockTextGenerator(s.ctrl)

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	c := cache.NewService(cache.NewInMemoryStore(), logger)
	s.svc = enrich.NewService(s.gen, c, time.Hour, time.Second, logger)
}

func (s *ServiceSuite) TestExtractLocationReturnsModelText() {
	s.gen.EXPECT().
		GenerateText(gomock.Any(), gomock.Any()).
		Return("Manhattan, NYC", nil)

	got := s.svc.ExtractLocation(context.Background(), "Flooding near the Hudson in Manhattan")
	s.Equal("Manhattan, NYC", got)
}

func (s *ServiceSuite) TestExtractLocationCachesByDescription() {
	s.gen.EXPECT().
		GenerateText(gomock.Any(), gomock.Any()).
		Return("Lower East Side", nil).
		Times(1)

	first := s.svc.ExtractLocation(context.Background(), "Fire reported downtown")
	second := s.svc.ExtractLocation(context.Background(), "Fire reported downtown")
	s.Equal(first, second)
}

func (s *ServiceSuite) TestExtractLocationDistinctDescriptionsMiss() {
	s.gen.EXPECT().
		GenerateText(gomock.Any(), gomock.Any()).
		Return("Queens", nil)
	s.gen.EXPECT().
		GenerateText(gomock.Any(), gomock.Any()).
		Return("Brooklyn", nil)

	s.Equal("Queens", s.svc.ExtractLocation(context.Background(), "collapse in queens"))
	s.Equal("Brooklyn", s.svc.ExtractLocation(context.Background(), "collapse in brooklyn"))
}

func (s *ServiceSuite) TestExtractLocationTrimsModelPadding() {
	s.gen.EXPECT().
		GenerateText(gomock.Any(), gomock.Any()).
		Return("unknown\n", nil)

	got := s.svc.ExtractLocation(context.Background(), "vague report, no place named")
	s.Equal(enrich.LocationUnknown, got)
}

func (s *ServiceSuite) TestExtractLocationTrimmedResultCached() {
	s.gen.EXPECT().
		GenerateText(gomock.Any(), gomock.Any()).
		Return("  Manhattan, NYC \n", nil).
		Times(1)

	s.Equal("Manhattan, NYC", s.svc.ExtractLocation(context.Background(), "hudson overflow"))
	s.Equal("Manhattan, NYC", s.svc.ExtractLocation(context.Background(), "hudson overflow"))
}

func (s *ServiceSuite) TestExtractLocationGeneratorFailure() {
	s.gen.EXPECT().
		GenerateText(gomock.Any(), gomock.Any()).
		Return("", errors.New("model overloaded"))

	got := s.svc.ExtractLocation(context.Background(), "something happened somewhere")
	s.Equal(enrich.LocationUnknown, got)
}

func (s *ServiceSuite) TestExtractLocationFailureNotCached() {
	s.gen.EXPECT().
		GenerateText(gomock.Any(), gomock.Any()).
		Return("", errors.New("timeout"))
	s.gen.EXPECT().
		GenerateText(gomock.Any(), gomock.Any()).
		Return("Staten Island", nil)

	s.Equal(enrich.LocationUnknown, s.svc.ExtractLocation(context.Background(), "ferry incident"))
	s.Equal("Staten Island", s.svc.ExtractLocation(context.Background(), "ferry incident"))
}

func (s *ServiceSuite) TestExtractLocationEmptyDescription() {
	got := s.svc.ExtractLocation(context.Background(), "")
	s.Equal(enrich.LocationUnknown, got)
}

func (s *ServiceSuite) TestVerifyImageReturnsModelText() {
	s.gen.EXPECT().
		GenerateText(gomock.Any(), gomock.Any()).
		Return("VERIFIED - consistent with reported flooding", nil)

	got := s.svc.VerifyImage(context.Background(), "https://example.com/flood.jpg", "flooding in manhattan")
	s.Equal("VERIFIED - consistent with reported flooding", got)
}

func (s *ServiceSuite) TestVerifyImageTrimsModelPadding() {
	s.gen.EXPECT().
		GenerateText(gomock.Any(), gomock.Any()).
		Return("VERIFIED - matches the scene\n", nil)

	got := s.svc.VerifyImage(context.Background(), "https://example.com/scene.jpg", "flooding")
	s.Equal("VERIFIED - matches the scene", got)
}

func (s *ServiceSuite) TestVerifyImageCachesByImageURL() {
	s.gen.EXPECT().
		GenerateText(gomock.Any(), gomock.Any()).
		Return("SUSPICIOUS - possible reuse", nil).
		Times(1)

	first := s.svc.VerifyImage(context.Background(), "https://example.com/a.jpg", "context one")
	second := s.svc.VerifyImage(context.Background(), "https://example.com/a.jpg", "context two")
	s.Equal(first, second)
}

func (s *ServiceSuite) TestVerifyImageGeneratorFailure() {
	s.gen.EXPECT().
		GenerateText(gomock.Any(), gomock.Any()).
		Return("", errors.New("model unavailable"))

	got := s.svc.VerifyImage(context.Background(), "https://example.com/b.jpg", "ctx")
	verdict, _ := enrich.ParseVerdict(got)
	s.Equal(enrich.VerdictRejected, verdict)
}

func (s *ServiceSuite) TestVerifyImageFailureNotCached() {
	s.gen.EXPECT().
		GenerateText(gomock.Any(), gomock.Any()).
		Return("", errors.New("down"))
	s.gen.EXPECT().
		GenerateText(gomock.Any(), gomock.Any()).
		Return("VERIFIED - fine", nil)

	first := s.svc.VerifyImage(context.Background(), "https://example.com/c.jpg", "ctx")
	verdict, _ := enrich.ParseVerdict(first)
	s.Equal(enrich.VerdictRejected, verdict)

	second := s.svc.VerifyImage(context.Background(), "https://example.com/c.jpg", "ctx")
	s.Equal("VERIFIED - fine", second)
}
