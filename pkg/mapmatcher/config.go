package mapmatcher

import (
	"errors"
	"fmt"
	"time"

	localesEn "github.com/go-playground/locales/en"
	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	enTranslations "github.com/go-playground/validator/v10/translations/en"
	da "github.com/lintang-b-s/navigatorx-mapmatch/pkg/datastructure"
	"github.com/lintang-b-s/navigatorx-mapmatch/pkg/util"
	"github.com/spf13/viper"
)

const (
	WEIGHTING_SIMPLE         = "simple"
	WEIGHTING_ROUTE_DISTANCE = "route_distance"
)

// Config. tunables of a matching run. the distance thresholds and penalties are empirical
// defaults and need re-tuning for other road networks.
type Config struct {
	MaxMatchingRadiusMeter            float64 `mapstructure:"max_matching_radius_meter" validate:"gt=0"`
	InitialRadiusMeter                float64 `mapstructure:"initial_radius_meter" validate:"gt=0,gtefield=MaxMatchingRadiusMeter"`
	MaxNrOfBestPaths                  int     `mapstructure:"max_nr_of_best_paths" validate:"gte=1"`
	MaxSegmentsForShortestPath        int     `mapstructure:"max_segments_for_shortest_path" validate:"gte=0"`
	NrOfPointsToSkip                  int     `mapstructure:"nr_of_points_to_skip" validate:"gte=0"`
	MinNrOfPoints                     int     `mapstructure:"min_nr_of_points" validate:"gte=0"`
	MinLength                         float64 `mapstructure:"min_length" validate:"gte=0"`
	MaxCountLoopsWithoutPathExtension int     `mapstructure:"max_count_loops_without_path_extension" validate:"gte=1"`
	RoutingMode                       string  `mapstructure:"routing_mode" validate:"oneof=car bike pedestrian"`
	RoutingCriteria                   string  `mapstructure:"routing_criteria" validate:"oneof=length time"`
	TimeoutInMs                       int64   `mapstructure:"timeout_in_ms"`
	SweepPeriodMs                     int64   `mapstructure:"sweep_period_ms" validate:"gt=0"`
	GlobalCacheSize                   int     `mapstructure:"global_cache_size" validate:"gte=1"`
	Weighting                         string  `mapstructure:"weighting" validate:"oneof=simple route_distance"`

	// segment matcher
	RematchTieTolerance      float64 `mapstructure:"rematch_tie_tolerance" validate:"gte=0"`
	OutlierWindow            int     `mapstructure:"outlier_window" validate:"gte=1"`
	OutlierRadiusFactor      float64 `mapstructure:"outlier_radius_factor" validate:"gt=1"`
	ShortSegmentMedianWindow int     `mapstructure:"short_segment_median_window" validate:"gte=1"`

	// distance penalties, meter
	PseudoSkipPenalty        float64 `mapstructure:"pseudo_skip_penalty" validate:"gte=0"`
	FrcSwitchPenaltyPerClass float64 `mapstructure:"frc_switch_penalty_per_class" validate:"gte=0"`
	BikeOneWayPenalty        float64 `mapstructure:"bike_one_way_penalty" validate:"gte=0"`
	BikeWalkwayPenalty       float64 `mapstructure:"bike_walkway_penalty" validate:"gte=0"`

	// weighting
	RouteFactorWeight       float64 `mapstructure:"route_factor_weight" validate:"gte=0,lte=1"`
	MatchedFactorWeight     float64 `mapstructure:"matched_factor_weight" validate:"gte=0,lte=1"`
	MaxRouteDistanceScore   float64 `mapstructure:"max_route_distance_score" validate:"gt=0"`
	MaxPartRouteFactor      float64 `mapstructure:"max_part_route_factor" validate:"gt=0"`
	NrOfLastPartsToCheck    int     `mapstructure:"nr_of_last_parts_to_check" validate:"gte=1"`
	MinAbsoluteDistance     float64 `mapstructure:"min_absolute_distance" validate:"gte=0"`
	SimpleScoreRadiusFactor float64 `mapstructure:"simple_score_radius_factor" validate:"gt=0"`
}

func DefaultConfig() Config {
	return Config{
		MaxMatchingRadiusMeter:            30,
		InitialRadiusMeter:                150,
		MaxNrOfBestPaths:                  5,
		MaxSegmentsForShortestPath:        15,
		NrOfPointsToSkip:                  3,
		MinNrOfPoints:                     20,
		MinLength:                         400,
		MaxCountLoopsWithoutPathExtension: 15,
		RoutingMode:                       "car",
		RoutingCriteria:                   "length",
		TimeoutInMs:                       60000,
		SweepPeriodMs:                     1000,
		GlobalCacheSize:                   200,
		Weighting:                         WEIGHTING_ROUTE_DISTANCE,

		RematchTieTolerance:      0.1,
		OutlierWindow:            5,
		OutlierRadiusFactor:      10,
		ShortSegmentMedianWindow: 10,

		PseudoSkipPenalty:        50,
		FrcSwitchPenaltyPerClass: 10,
		BikeOneWayPenalty:        100,
		BikeWalkwayPenalty:       50,

		RouteFactorWeight:       0.4,
		MatchedFactorWeight:     0.6,
		MaxRouteDistanceScore:   2.5,
		MaxPartRouteFactor:      5,
		NrOfLastPartsToCheck:    10,
		MinAbsoluteDistance:     10,
		SimpleScoreRadiusFactor: 4,
	}
}

// ConfigFromViper. DefaultConfig overridden by the "mapmatching" section of the viper config
func ConfigFromViper() (Config, error) {
	def := DefaultConfig()
	defaults := map[string]interface{}{
		"max_matching_radius_meter":              def.MaxMatchingRadiusMeter,
		"initial_radius_meter":                   def.InitialRadiusMeter,
		"max_nr_of_best_paths":                   def.MaxNrOfBestPaths,
		"max_segments_for_shortest_path":         def.MaxSegmentsForShortestPath,
		"nr_of_points_to_skip":                   def.NrOfPointsToSkip,
		"min_nr_of_points":                       def.MinNrOfPoints,
		"min_length":                             def.MinLength,
		"max_count_loops_without_path_extension": def.MaxCountLoopsWithoutPathExtension,
		"routing_mode":                           def.RoutingMode,
		"routing_criteria":                       def.RoutingCriteria,
		"timeout_in_ms":                          def.TimeoutInMs,
		"sweep_period_ms":                        def.SweepPeriodMs,
		"global_cache_size":                      def.GlobalCacheSize,
		"weighting":                              def.Weighting,
		"rematch_tie_tolerance":                  def.RematchTieTolerance,
		"outlier_window":                         def.OutlierWindow,
		"outlier_radius_factor":                  def.OutlierRadiusFactor,
		"short_segment_median_window":            def.ShortSegmentMedianWindow,
		"pseudo_skip_penalty":                    def.PseudoSkipPenalty,
		"frc_switch_penalty_per_class":           def.FrcSwitchPenaltyPerClass,
		"bike_one_way_penalty":                   def.BikeOneWayPenalty,
		"bike_walkway_penalty":                   def.BikeWalkwayPenalty,
		"route_factor_weight":                    def.RouteFactorWeight,
		"matched_factor_weight":                  def.MatchedFactorWeight,
		"max_route_distance_score":               def.MaxRouteDistanceScore,
		"max_part_route_factor":                  def.MaxPartRouteFactor,
		"nr_of_last_parts_to_check":              def.NrOfLastPartsToCheck,
		"min_absolute_distance":                  def.MinAbsoluteDistance,
		"simple_score_radius_factor":             def.SimpleScoreRadiusFactor,
	}
	for k, v := range defaults {
		viper.SetDefault("mapmatching."+k, v)
	}

	// AllSettings merges the section defaults with the file, UnmarshalKey would not
	var settings struct {
		MapMatching Config `mapstructure:"mapmatching"`
	}
	if err := viper.Unmarshal(&settings); err != nil {
		return Config{}, util.WrapErrorf(err, util.ErrBadParamInput, "invalid mapmatching config")
	}
	if err := settings.MapMatching.Validate(); err != nil {
		return Config{}, err
	}
	return settings.MapMatching, nil
}

// Validate. struct validation with english messages
func (c Config) Validate() error {
	validate := validator.New()
	if err := validate.Struct(c); err != nil {
		english := localesEn.New()
		uni := ut.New(english, english)
		trans, _ := uni.GetTranslator("en")
		_ = enTranslations.RegisterDefaultTranslations(validate, trans)
		vv := translateError(err, trans)
		return util.WrapErrorf(errors.Join(vv...), util.ErrBadParamInput, "validation error")
	}
	return nil
}

func translateError(err error, trans ut.Translator) (errs []error) {
	if err == nil {
		return nil
	}
	var validatorErrs validator.ValidationErrors
	if !errors.As(err, &validatorErrs) {
		return []error{err}
	}
	for _, e := range validatorErrs {
		translatedErr := fmt.Errorf("%s", e.Translate(trans))
		errs = append(errs, translatedErr)
	}
	return errs
}

func (c Config) GetRoutingMode() da.RoutingMode {
	m, _ := da.ParseRoutingMode(c.RoutingMode)
	return m
}

func (c Config) GetRoutingCriteria() da.RoutingCriteria {
	rc, _ := da.ParseRoutingCriteria(c.RoutingCriteria)
	return rc
}

func (c Config) GetTimeout() time.Duration {
	return time.Duration(c.TimeoutInMs) * time.Millisecond
}

func (c Config) GetSweepPeriod() time.Duration {
	return time.Duration(c.SweepPeriodMs) * time.Millisecond
}
