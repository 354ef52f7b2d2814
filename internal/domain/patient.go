package domain

import "math"

// Patient is a demographic record owned by the user that created it.
type Patient struct {
	ID        PatientID
	OwnerUID  UserID
	Name      string
	Age       int
	Gender    string // male | female
	Phone     string
	Email     string
	HeightM   float64
	WeightKg  float64
	BMI       float64
	CreatedAt Timestamp
}

type BMICategory string

const (
	BMIUnderweight BMICategory = "Underweight"
	BMINormal      BMICategory = "Normal"
	BMIOverweight  BMICategory = "Overweight"
	BMIObese       BMICategory = "Obese"
)

// ComputeBMI returns weight/height² rounded to one decimal, or 0 when the
// height is not usable.
func ComputeBMI(heightM, weightKg float64) float64 {
	if heightM <= 0 || weightKg <= 0 {
		return 0
	}
	bmi := weightKg / (heightM * heightM)
	return math.Round(bmi*10) / 10
}

func CategorizeBMI(bmi float64) BMICategory {
	switch {
	case bmi < 18.5:
		return BMIUnderweight
	case bmi < 25:
		return BMINormal
	case bmi < 30:
		return BMIOverweight
	default:
		return BMIObese
	}
}
