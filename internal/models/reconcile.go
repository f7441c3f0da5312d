package models

import (
	"fmt"

	"github.com/getmentor/mentorship-api/pkg/errors"
)

// PairRepair summarizes what ReconcilePair changed
type PairRepair struct {
	MentorChanged    bool
	StudentChanged   bool
	Requests         int
	Mentorships      int
	SessionProjected int
	// Accepted lists requests promoted to accepted on the mentor side
	Accepted []string
}

// Changed reports whether either side needs to be written
func (r PairRepair) Changed() bool {
	return r.MentorChanged || r.StudentChanged
}

// ReconcilePair restores symmetry between the mentor's and the student's
// records for one pair, in place. The more advanced side of each state machine
// wins and nothing moves backwards. Missing mentor-side projections are rebuilt
// from the student aggregate. Accepted on one side and rejected on the other
// cannot be resolved and is reported as a consistency conflict.
func ReconcilePair(m *Mentor, s *Student) (PairRepair, error) {
	var repair PairRepair
	if err := reconcileRequests(m, s, &repair); err != nil {
		return PairRepair{}, err
	}
	if err := reconcileMentorships(m, s, &repair); err != nil {
		return PairRepair{}, err
	}
	return repair, nil
}

func reconcileRequests(m *Mentor, s *Student, repair *PairRepair) error {
	for _, sr := range s.Requests.ForPair(m.ID, s.ID) {
		mr := m.Requests.Find(sr.ID)
		if mr == nil {
			projection := sr
			snapshot := s.Snapshot()
			projection.StudentSnapshot = &snapshot
			m.Requests = append(m.Requests, projection)
			repair.MentorChanged = true
			repair.Requests++
			continue
		}
		if mr.Status == sr.Status {
			continue
		}

		switch {
		case mr.Status.rank() > sr.Status.rank():
			copyResponse(s.Requests.Find(sr.ID), mr)
			repair.StudentChanged = true
		case sr.Status.rank() > mr.Status.rank():
			if mr.Status == RequestPending && sr.Status == RequestAccepted {
				repair.Accepted = append(repair.Accepted, sr.ID)
			}
			copyResponse(mr, &sr)
			repair.MentorChanged = true
		default:
			return errors.ConsistencyConflictError(m.ID, s.ID,
				fmt.Sprintf("request %s is %s for mentor and %s for student", sr.ID, mr.Status, sr.Status))
		}
		repair.Requests++
	}

	for _, mr := range m.Requests.ForPair(m.ID, s.ID) {
		if s.AddRequest(mr) {
			repair.StudentChanged = true
			repair.Requests++
		}
	}
	return nil
}

func copyResponse(dst, src *MentorshipRequest) {
	dst.Status = src.Status
	dst.RespondedAt = src.RespondedAt
	dst.ResponseMessage = src.ResponseMessage
}

func reconcileMentorships(m *Mentor, s *Student, repair *PairRepair) error {
	for _, sm := range s.Mentorships.ForPair(m.ID, s.ID) {
		if m.AttachMentorship(sm) {
			repair.MentorChanged = true
			repair.Mentorships++
		}
	}
	for _, mm := range m.Mentorships.ForPair(m.ID, s.ID) {
		if s.AttachMentorship(mm) {
			repair.StudentChanged = true
			repair.Mentorships++
		}
	}

	for _, mm := range m.Mentorships.ForPair(m.ID, s.ID) {
		sm := s.Mentorships.Find(mm.ID)

		if mm.Status != sm.Status {
			winner := mentorshipWinner(mm, *sm)
			if winner.Status != mm.Status {
				if _, err := m.TransitionMentorship(mm.ID, winner.Status, winner.StatusChangedAt); err != nil {
					return err
				}
				repair.MentorChanged = true
			} else {
				sm.Status = winner.Status
				sm.StatusChangedAt = winner.StatusChangedAt
				repair.StudentChanged = true
			}
			repair.Mentorships++
		}

		current := m.Mentorships.Find(mm.ID)
		if !current.sameSessionFields(*sm) || sm.MentorshipType != current.MentorshipType {
			sm.SessionCount = current.SessionCount
			sm.LastSessionDate = current.LastSessionDate
			sm.NextSessionDate = current.NextSessionDate
			sm.MentorshipType = current.MentorshipType
			repair.StudentChanged = true
			repair.SessionProjected++
		}
	}
	return nil
}

// mentorshipWinner picks the side that dominates: completed over anything,
// otherwise the later status change, with ties going to the mentor side.
func mentorshipWinner(mentorSide, studentSide ActiveMentorship) ActiveMentorship {
	if mentorSide.Status.rank() != studentSide.Status.rank() {
		if mentorSide.Status.rank() > studentSide.Status.rank() {
			return mentorSide
		}
		return studentSide
	}
	if studentSide.StatusChangedAt.After(mentorSide.StatusChangedAt) {
		return studentSide
	}
	return mentorSide
}
