package hatifyService

import (
	"ProjectHatify/internal/api/hatify"
	"ProjectHatify/pkg/facemesh"
	"ProjectHatify/pkg/limits"
	"ProjectHatify/pkg/overlay"
	redisPkg "ProjectHatify/pkg/redis"
	s3Pkg "ProjectHatify/pkg/s3"
	utilsPkg "ProjectHatify/pkg/utils"
	"net/http"

	"github.com/sirupsen/logrus"
	"golang.org/x/net/context"
)

type IHatifyService interface {
	HatifyImage(ctx context.Context, data []byte, scale float64) (*hatify.ProcessResult, error)
	HatifyURL(ctx context.Context, imageURL string, scale float64) (*hatify.ProcessResult, error)
	HatifyFrame(frame []byte) ([]byte, error)
	LimitsInfo() map[string]interface{}
}

type hatifyService struct {
	log        *logrus.Logger
	faceMesh   facemesh.ItfFaceMesh
	extractor  *overlay.Extractor
	engine     *overlay.Engine
	s3Client   s3Pkg.ItfS3
	redis      redisPkg.IRedis
	utils      utilsPkg.IUtils
	limits     *limits.Limits
	httpClient *http.Client
}

func NewHatifyService(
	log *logrus.Logger,
	faceMesh facemesh.ItfFaceMesh,
	extractor *overlay.Extractor,
	engine *overlay.Engine,
	s3Client s3Pkg.ItfS3,
	redis redisPkg.IRedis,
	utils utilsPkg.IUtils,
	lim *limits.Limits,
) IHatifyService {
	return &hatifyService{
		log:       log,
		faceMesh:  faceMesh,
		extractor: extractor,
		engine:    engine,
		s3Client:  s3Client,
		redis:     redis,
		utils:     utils,
		limits:    lim,
		httpClient: &http.Client{
			Timeout: lim.URLFetchTimeout,
		},
	}
}

func (s *hatifyService) LimitsInfo() map[string]interface{} {
	return s.limits.Info()
}
