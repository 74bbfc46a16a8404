package http

import (
	"sync"
	"time"
)

const (
	requetesParMinute = 60
	fenetre           = time.Minute
)

// rateLimiter est un limiteur a fenetre fixe par IP cliente.
type rateLimiter struct {
	mu       sync.Mutex
	clients  map[string]*compteur
	arret    chan struct{}
	arretUne sync.Once
}

type compteur struct {
	debut    time.Time
	requetes int
}

func newRateLimiter() *rateLimiter {
	rl := &rateLimiter{
		clients: make(map[string]*compteur),
		arret:   make(chan struct{}),
	}
	go rl.nettoyage()
	return rl
}

// allow compte la requete et retourne false au dela du quota de la fenetre.
func (rl *rateLimiter) allow(ip string) bool {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	now := time.Now()
	c, ok := rl.clients[ip]
	if !ok || now.Sub(c.debut) > fenetre {
		rl.clients[ip] = &compteur{debut: now, requetes: 1}
		return true
	}

	c.requetes++
	return c.requetes <= requetesParMinute
}

// nettoyage purge periodiquement les fenetres expirees pour borner la map.
func (rl *rateLimiter) nettoyage() {
	ticker := time.NewTicker(5 * time.Minute)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			rl.mu.Lock()
			limite := time.Now().Add(-2 * fenetre)
			for ip, c := range rl.clients {
				if c.debut.Before(limite) {
					delete(rl.clients, ip)
				}
			}
			rl.mu.Unlock()
		case <-rl.arret:
			return
		}
	}
}

func (rl *rateLimiter) stop() {
	rl.arretUne.Do(func() { close(rl.arret) })
}
