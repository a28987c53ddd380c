// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package training

// # Capacity Policy

/*
DecidePlacement chooses where a new participant would land.

Parameters:
  - session: *Session (read only)
  - participantID: string

Returns:
  - Placement: PlacementBasic while basic places are free, otherwise PlacementReserve
  - error: ErrAlreadyEnrolled if the participant is in either collection
*/
func DecidePlacement(session *Session, participantID string) (Placement, error) {
	if session.PlacementOf(participantID) != PlacementNone {
		return PlacementNone, ErrAlreadyEnrolled
	}

	if len(session.Basic) < session.Capacity {
		return PlacementBasic, nil
	}

	return PlacementReserve, nil
}

/*
DecidePromotion picks the reserve participant to move into a freed basic place.

The reserve is kept ordered by (JoinedAt, Seq), so the head is always the
longest-waiting participant. Ties on JoinedAt never fall back to participant IDs.

Parameters:
  - session: *Session (read only)

Returns:
  - string: Participant ID of the reserve head
  - bool: false when the basic roster is full or the reserve is empty
*/
func DecidePromotion(session *Session) (string, bool) {
	if len(session.Basic) >= session.Capacity || len(session.Reserve) == 0 {
		return "", false
	}
	return session.Reserve[0].ParticipantID, true
}
