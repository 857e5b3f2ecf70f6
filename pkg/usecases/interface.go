package usecases

import (
	"github.com/lintang-b-s/navigatorx-mapmatch/pkg/engine"
)

type GraphRegistry interface {
	GetRoadNetwork(name, version string) (*engine.RoadNetwork, error)
}
