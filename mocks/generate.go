package mocks

//go:generate mockgen -destination=./mock_session.go -package=mocks github.com/rxtech-lab/argo-snapshot/pkg/ibsession Session
//go:generate mockgen -destination=./mock_barwriter.go -package=mocks github.com/rxtech-lab/argo-snapshot/pkg/barwriter BarWriter
