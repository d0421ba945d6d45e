package api

import (
	"motor_service/internal/domain/model"
)

type ErrorResponse struct {
	Error   string `json:"error"`
	Details string `json:"details,omitempty"`
}

type ThingSpeakRequest struct {
	ChannelID string `json:"channel_id" binding:"required"`
	APIKey    string `json:"api_key"`
	MotorType string `json:"motor_type"`
	PhaseType string `json:"phase_type"`
	HP        string `json:"hp"`
	Voltage   string `json:"voltage"`
}

type PredictResponse struct {
	Success    bool            `json:"success"`
	ID         string          `json:"id"`
	MotorInfo  model.MotorInfo `json:"motor_info"`
	Prediction PredictionBody  `json:"prediction"`
	Data       DataBody        `json:"data"`
}

type PredictionBody struct {
	Fault            string  `json:"fault"`
	RUL              string  `json:"rul"`
	RULYears         int     `json:"rul_years"`
	RULMonths        int     `json:"rul_months"`
	HealthPercentage int     `json:"health_percentage"`
	HealthStatus     string  `json:"health_status"`
	Deviation        float64 `json:"deviation"`
}

type DataBody struct {
	Samples   []int              `json:"samples"`
	Vibration AxisSeries         `json:"vibration"`
	Magnetic  AxisSeries         `json:"magnetic"`
	PSD       PSDBody            `json:"psd"`
	Features  map[string]float64 `json:"features"`
}

type AxisSeries struct {
	X []float64 `json:"x"`
	Y []float64 `json:"y"`
	Z []float64 `json:"z"`
}

type PSDBody struct {
	Vibration model.Spectrum `json:"vibration"`
	Magnetic  model.Spectrum `json:"magnetic"`
}

type HealthResponse struct {
	Status         string `json:"status"`
	ModelAvailable bool   `json:"model_available"`
	SchemaVersion  string `json:"schema_version,omitempty"`
}

type HistoryResponse struct {
	Predictions []model.PredictionRecord `json:"predictions"`
}

type TestDataResponse struct {
	Files []string `json:"files"`
}

func newPredictResponse(pred *model.Prediction) PredictResponse {
	series := pred.Batch.Filled()
	n := pred.Batch.Len()
	samples := make([]int, n)
	for i := range samples {
		samples[i] = i
	}

	return PredictResponse{
		Success:   true,
		ID:        pred.ID,
		MotorInfo: pred.Motor,
		Prediction: PredictionBody{
			Fault:            pred.Fault,
			RUL:              pred.Health.RUL.String(),
			RULYears:         pred.Health.RUL.Years,
			RULMonths:        pred.Health.RUL.Months,
			HealthPercentage: pred.Health.Percentage,
			HealthStatus:     string(pred.Health.Tier),
			Deviation:        model.Round(pred.Health.Deviation, 2),
		},
		Data: DataBody{
			Samples: samples,
			Vibration: AxisSeries{
				X: series[model.VibrationX],
				Y: series[model.VibrationY],
				Z: series[model.VibrationZ],
			},
			Magnetic: AxisSeries{
				X: series[model.MagneticX],
				Y: series[model.MagneticY],
				Z: series[model.MagneticZ],
			},
			PSD: PSDBody{
				Vibration: pred.VibrationPSD,
				Magnetic:  pred.MagneticPSD,
			},
			Features: pred.Features.Rounded(4),
		},
	}
}
