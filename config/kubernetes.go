// ABOUTME: This file handles Kubernetes client configuration for OAuth2 token storage
// ABOUTME: Provides in-cluster and kubeconfig client setup

package config

import (
	"fmt"
	"os"
	"path/filepath"

	"k8s.io/client-go/kubernetes"
	"k8s.io/client-go/rest"
	"k8s.io/client-go/tools/clientcmd"
)

// CreateKubernetesClient creates a Kubernetes client based on configuration
func (k *KubernetesConfig) CreateKubernetesClient() (kubernetes.Interface, error) {
	restConfig, err := k.restConfig()
	if err != nil {
		return nil, err
	}

	clientset, err := kubernetes.NewForConfig(restConfig)
	if err != nil {
		return nil, fmt.Errorf("failed to create kubernetes client: %w", err)
	}
	return clientset, nil
}

func (k *KubernetesConfig) restConfig() (*rest.Config, error) {
	if k.InCluster {
		restConfig, err := rest.InClusterConfig()
		if err != nil {
			return nil, fmt.Errorf("failed to create in-cluster config: %w", err)
		}
		return restConfig, nil
	}

	kubeConfigPath := os.Getenv("KUBECONFIG")
	if kubeConfigPath == "" {
		kubeConfigPath = filepath.Join(os.Getenv("HOME"), ".kube", "config")
	}
	restConfig, err := clientcmd.BuildConfigFromFlags("", kubeConfigPath)
	if err != nil {
		return nil, fmt.Errorf("failed to create config from kubeconfig %s: %w", kubeConfigPath, err)
	}
	return restConfig, nil
}
