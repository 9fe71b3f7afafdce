package status

import (
	"strings"
	"testing"

	"petcare_ops_backend/platform/apperr"
)

func TestAppointmentTransitions_LegalPath(t *testing.T) {
	path := []AppointmentStatus{AppointmentPending, AppointmentConfirmed, AppointmentInProgress, AppointmentCompleted}
	for i := 0; i < len(path)-1; i++ {
		if err := ValidateAppointmentTransition(path[i], path[i+1]); err != nil {
			t.Fatalf("expected %s -> %s to be legal, got %v", path[i], path[i+1], err)
		}
	}
}

func TestAppointmentTransitions_CancelledReachableFromActiveStates(t *testing.T) {
	for _, from := range []AppointmentStatus{AppointmentPending, AppointmentConfirmed, AppointmentInProgress} {
		if err := ValidateAppointmentTransition(from, AppointmentCancelled); err != nil {
			t.Fatalf("expected %s -> cancelled to be legal, got %v", from, err)
		}
	}
}

func TestAppointmentTransitions_NoBackEdges(t *testing.T) {
	illegal := [][2]AppointmentStatus{
		{AppointmentCompleted, AppointmentPending},
		{AppointmentConfirmed, AppointmentPending},
		{AppointmentInProgress, AppointmentConfirmed},
		{AppointmentPending, AppointmentInProgress},
		{AppointmentPending, AppointmentCompleted},
		{AppointmentCancelled, AppointmentPending},
		{AppointmentCompleted, AppointmentCancelled},
	}
	for _, edge := range illegal {
		err := ValidateAppointmentTransition(edge[0], edge[1])
		if err == nil {
			t.Fatalf("expected %s -> %s to be rejected", edge[0], edge[1])
		}
		if !apperr.Is(err, apperr.KindInvalidTransition) {
			t.Fatalf("expected invalid transition kind for %s -> %s, got %v", edge[0], edge[1], err)
		}
	}
}

func TestRequestTransitions_OfferAndRevertEdges(t *testing.T) {
	if err := ValidateRequestTransition(RequestPending, RequestAwaitingEmployee); err != nil {
		t.Fatalf("offer edge should be legal, got %v", err)
	}
	if err := ValidateRequestTransition(RequestAwaitingEmployee, RequestInProgress); err != nil {
		t.Fatalf("accept edge should be legal, got %v", err)
	}
	// all-reject revert
	if err := ValidateRequestTransition(RequestAwaitingEmployee, RequestPending); err != nil {
		t.Fatalf("revert edge should be legal, got %v", err)
	}
}

func TestRequestTransitions_TerminalStatesAreFinal(t *testing.T) {
	terminals := []RequestStatus{RequestCompleted, RequestRejected, RequestCancelled}
	targets := []RequestStatus{RequestPending, RequestAwaitingEmployee, RequestInProgress, RequestCompleted}
	for _, from := range terminals {
		if !RequestTerminal(from) {
			t.Fatalf("expected %s to be terminal", from)
		}
		for _, to := range targets {
			if from == to {
				continue
			}
			if err := ValidateRequestTransition(from, to); err == nil {
				t.Fatalf("expected terminal %s -> %s to be rejected", from, to)
			}
		}
	}
}

func TestRequestTransitions_AdministrativeExits(t *testing.T) {
	for _, from := range []RequestStatus{RequestPending, RequestAwaitingEmployee} {
		for _, to := range []RequestStatus{RequestRejected, RequestCancelled} {
			if err := ValidateRequestTransition(from, to); err != nil {
				t.Fatalf("expected %s -> %s to be legal, got %v", from, to, err)
			}
		}
	}
	if err := ValidateRequestTransition(RequestInProgress, RequestRejected); err == nil {
		t.Fatal("expected in_progress -> rejected to be rejected")
	}
}

func TestInvalidTransitionNamesTheEdge(t *testing.T) {
	err := ValidateRequestTransition(RequestCompleted, RequestPending)
	if err == nil {
		t.Fatal("expected error")
	}
	msg := err.Error()
	if want := `"completed"`; !strings.Contains(msg, want) {
		t.Fatalf("error %q should name the from state %s", msg, want)
	}
	if want := `"pending"`; !strings.Contains(msg, want) {
		t.Fatalf("error %q should name the to state %s", msg, want)
	}
}

func TestPrimaryEmployeeAllowed(t *testing.T) {
	allowed := map[RequestStatus]bool{
		RequestPending:          false,
		RequestAwaitingEmployee: true,
		RequestInProgress:       true,
		RequestCompleted:        true,
		RequestRejected:         false,
		RequestCancelled:        false,
	}
	for st, want := range allowed {
		if got := PrimaryEmployeeAllowed(st); got != want {
			t.Fatalf("PrimaryEmployeeAllowed(%s) = %v, want %v", st, got, want)
		}
	}
}
