package dto

import "github.com/Aramesh-Aria/acasmart-api/internal/service"

// RecordAttendancePayload is the wire form of an attendance write.
type RecordAttendancePayload struct {
	TermID    string `json:"term_id" binding:"required"`
	StudentID string `json:"student_id"`
	ClassID   string `json:"class_id"`
	Date      string `json:"date" binding:"required"`
	IsPresent bool   `json:"is_present"`
}

// ToRequest converts the payload into the service request form.
func (p RecordAttendancePayload) ToRequest() (service.RecordAttendanceRequest, error) {
	date, err := ParseDate(p.Date)
	if err != nil {
		return service.RecordAttendanceRequest{}, err
	}
	return service.RecordAttendanceRequest{
		TermID:    p.TermID,
		StudentID: p.StudentID,
		ClassID:   p.ClassID,
		Date:      date,
		IsPresent: p.IsPresent,
	}, nil
}
